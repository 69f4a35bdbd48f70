package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/marketplace/internal/config"
	"github.com/Skotchmaster/marketplace/internal/models"
)

type fakeMailer struct {
	sent []string // recipients in send order
	fail bool
}

func (m *fakeMailer) Send(to, subject, body string) error {
	if m.fail {
		return errors.New("smtp down")
	}
	m.sent = append(m.sent, to)
	return nil
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, config.Migrate(db))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, name string) *models.User {
	t.Helper()
	u := models.User{Name: name, Email: name + "@example.com", PasswordHash: "x", Role: "user"}
	require.NoError(t, db.Create(&u).Error)
	return &u
}

func seedProduct(t *testing.T, db *gorm.DB, ownerID uint, name string) *models.Product {
	t.Helper()
	p := models.Product{
		Name: name, Description: "d", Price: 100, Image: "img.jpg",
		Category: "c", Brand: "b", CountInStock: 5, IsActive: true, OwnerID: ownerID,
	}
	require.NoError(t, db.Create(&p).Error)
	return &p
}

func seedOrder(t *testing.T, db *gorm.DB, buyerID uint, items []models.OrderItem) *models.Order {
	t.Helper()
	o := models.Order{
		UserID:        buyerID,
		PaymentMethod: models.PaymentMethodCOD,
		Status:        models.OrderStatusPending,
		Items:         items,
		ShippingAddress: models.ShippingAddress{
			Address: "1 Main St", City: "Pune", State: "MH",
			PostalCode: "411001", Country: "IN", Phone: "9876543210",
		},
	}
	require.NoError(t, db.Create(&o).Error)
	return &o
}

func TestOrderCreatedNotifiesEachOwnerOnce(t *testing.T) {
	db := newTestDB(t)
	buyer := seedUser(t, db, "buyer")
	ownerA := seedUser(t, db, "owner-a")
	ownerB := seedUser(t, db, "owner-b")
	p1 := seedProduct(t, db, ownerA.ID, "Keyboard")
	p2 := seedProduct(t, db, ownerA.ID, "Mouse")
	p3 := seedProduct(t, db, ownerB.ID, "Monitor")

	order := seedOrder(t, db, buyer.ID, []models.OrderItem{
		{ProductID: p1.ID, Name: p1.Name, Price: p1.Price, Quantity: 1},
		{ProductID: p2.ID, Name: p2.Name, Price: p2.Price, Quantity: 2},
		{ProductID: p3.ID, Name: p3.Name, Price: p3.Price, Quantity: 1},
	})

	mailer := &fakeMailer{}
	f := &Fanout{DB: db, Mailer: mailer, Log: slog.New(slog.NewTextHandler(io.Discard, nil))}
	f.OrderCreated(context.Background(), order, buyer)

	// buyer confirmation + one email per distinct owner
	require.Len(t, mailer.sent, 3)
	require.Equal(t, "buyer@example.com", mailer.sent[0])
	require.ElementsMatch(t, []string{"owner-a@example.com", "owner-b@example.com"}, mailer.sent[1:])

	// one system message per ordered line, addressed to its owner
	var msgs []models.Message
	require.NoError(t, db.Where("order_id = ?", order.ID).Find(&msgs).Error)
	require.Len(t, msgs, 3)
	perOwner := map[uint]int{}
	for _, m := range msgs {
		require.Equal(t, models.MessageTypeSystem, m.Type)
		require.Equal(t, buyer.ID, m.SenderID)
		perOwner[m.RecipientID]++
	}
	require.Equal(t, 2, perOwner[ownerA.ID])
	require.Equal(t, 1, perOwner[ownerB.ID])
}

func TestOrderCreatedSkipsUnresolvableProducts(t *testing.T) {
	db := newTestDB(t)
	buyer := seedUser(t, db, "buyer")
	owner := seedUser(t, db, "owner")
	p := seedProduct(t, db, owner.ID, "Keyboard")

	order := seedOrder(t, db, buyer.ID, []models.OrderItem{
		{ProductID: p.ID, Name: p.Name, Price: p.Price, Quantity: 1},
		{ProductID: 404, Name: "Gone", Price: 10, Quantity: 1},
	})

	mailer := &fakeMailer{}
	f := &Fanout{DB: db, Mailer: mailer, Log: slog.New(slog.NewTextHandler(io.Discard, nil))}
	f.OrderCreated(context.Background(), order, buyer)

	var msgs []models.Message
	require.NoError(t, db.Where("order_id = ?", order.ID).Find(&msgs).Error)
	require.Len(t, msgs, 1)
	require.Equal(t, owner.ID, msgs[0].RecipientID)
}

func TestOrderCreatedSwallowsMailerFailure(t *testing.T) {
	db := newTestDB(t)
	buyer := seedUser(t, db, "buyer")
	owner := seedUser(t, db, "owner")
	p := seedProduct(t, db, owner.ID, "Keyboard")

	order := seedOrder(t, db, buyer.ID, []models.OrderItem{
		{ProductID: p.ID, Name: p.Name, Price: p.Price, Quantity: 1},
	})

	f := &Fanout{DB: db, Mailer: &fakeMailer{fail: true}, Log: slog.New(slog.NewTextHandler(io.Discard, nil))}
	f.OrderCreated(context.Background(), order, buyer) // must not panic or error out

	// the system message still lands even though every email failed
	var count int64
	require.NoError(t, db.Model(&models.Message{}).Where("order_id = ?", order.ID).Count(&count).Error)
	require.Equal(t, int64(1), count)
}
