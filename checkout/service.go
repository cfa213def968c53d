package checkout

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/krushee/krushee-backend-go/apperror"
	"github.com/krushee/krushee-backend-go/cart"
	"github.com/krushee/krushee-backend-go/localstore"
	"github.com/krushee/krushee-backend-go/metrics"
	"github.com/krushee/krushee-backend-go/models"
	"github.com/krushee/krushee-backend-go/purchase"
	"github.com/krushee/krushee-backend-go/session"
	"github.com/krushee/krushee-backend-go/utils"
)

// Purchaser records a single product purchase.
type Purchaser interface {
	Purchase(ctx context.Context, sess *session.Session, productID string, qty int, meta purchase.PaymentMetadata) (*purchase.Receipt, error)
}

type Item struct {
	ProductID string `json:"productId"`
	Qty       int    `json:"qty"`
}

// Failure names the line that stopped a checkout.
type Failure struct {
	ProductID string `json:"productId"`
	Code      string `json:"code"`
	Message   string `json:"message"`
}

// Result lists the purchases made. When Failed is set, the receipts are the lines
// bought before the failing one; they are not undone and the cart is left as it was.
type Result struct {
	Receipts      []purchase.Receipt `json:"receipts"`
	Total         decimal.Decimal    `json:"total"`
	PaymentMethod string             `json:"paymentMethod"`
	PaymentStatus string             `json:"paymentStatus"`
	Failed        *Failure           `json:"failed,omitempty"`
	SavedCard     *models.SavedCard  `json:"savedCard,omitempty"`
}

type Service struct {
	purchases Purchaser
	metrics   *metrics.Metrics
	log       *zap.Logger
}

func NewService(p Purchaser, m *metrics.Metrics, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{purchases: p, metrics: m, log: logger.Named("checkout")}
}

// Checkout pays for the buy-now item when one is given, otherwise for the whole cart
// held in local. Lines are purchased one after another and the first failure stops
// the run. The cart is emptied only when every line succeeded.
func (s *Service) Checkout(ctx context.Context, sess *session.Session, local localstore.Store, req Request) (*Result, error) {
	req.normalize()
	if err := utils.Validator().Struct(req); err != nil {
		s.metrics.Checkout(metrics.ResultFailure)
		return nil, apperror.Validation(utils.ValidationMessage(err))
	}

	carts := cart.NewService(local, s.log)
	items, err := s.items(ctx, carts, req)
	if err != nil {
		s.metrics.Checkout(metrics.ResultFailure)
		return nil, err
	}
	if !sess.Authenticated() {
		s.metrics.Checkout(metrics.ResultFailure)
		return nil, apperror.New(apperror.KindAuthRequired, "Please login to complete your order")
	}

	meta := purchase.PaymentMetadata{
		PaymentMethod: req.Method.Label(),
		PaymentStatus: req.Method.PaymentStatus(),
		Notes:         req.Notes,
	}
	if req.AddressID != "" {
		line, err := addressLine(ctx, local, req.AddressID)
		if err != nil {
			s.metrics.Checkout(metrics.ResultFailure)
			return nil, err
		}
		meta.CustomerAddress = line
	}

	result := &Result{
		Receipts:      make([]purchase.Receipt, 0, len(items)),
		Total:         decimal.Zero,
		PaymentMethod: meta.PaymentMethod,
		PaymentStatus: meta.PaymentStatus,
	}
	for _, it := range items {
		receipt, err := s.purchases.Purchase(ctx, sess, it.ProductID, it.Qty, meta)
		if err != nil {
			result.Failed = &Failure{
				ProductID: it.ProductID,
				Code:      string(apperror.KindOf(err)),
				Message:   apperror.MessageOf(err),
			}
			s.metrics.Checkout(metrics.ResultFailure)
			s.log.Warn("checkout stopped",
				zap.String("session_id", sess.ID),
				zap.String("product_id", it.ProductID),
				zap.Int("completed", len(result.Receipts)),
				zap.Error(err),
			)
			return result, err
		}
		result.Receipts = append(result.Receipts, *receipt)
		result.Total = result.Total.Add(decimal.NewFromFloat(receipt.Revenue.Amount))
	}

	if err := carts.Clear(ctx); err != nil {
		// The orders are already recorded; report them and leave the cart to the shopper.
		s.log.Error("failed to clear cart after checkout", zap.String("session_id", sess.ID), zap.Error(err))
	}

	if req.SaveCard && req.Method == MethodCard {
		card, err := NewCards(local).Add(ctx, models.SavedCard{
			Holder: req.Card.Holder,
			Last4:  req.Card.Number[len(req.Card.Number)-4:],
			Brand:  cardBrand(req.Card.Number),
		})
		if err != nil {
			s.log.Warn("failed to save card", zap.String("session_id", sess.ID), zap.Error(err))
		} else {
			result.SavedCard = &card
		}
	}

	s.metrics.Checkout(metrics.ResultSuccess)
	s.log.Info("checkout completed",
		zap.String("session_id", sess.ID),
		zap.String("user_id", sess.UserID()),
		zap.Int("lines", len(result.Receipts)),
		zap.String("total", result.Total.String()),
		zap.String("payment_method", meta.PaymentMethod),
	)
	return result, nil
}

func (s *Service) items(ctx context.Context, carts *cart.Service, req Request) ([]Item, error) {
	if req.BuyNow != nil {
		qty := req.BuyNow.Qty
		if qty == 0 {
			qty = 1
		}
		return []Item{{ProductID: req.BuyNow.ProductID, Qty: qty}}, nil
	}
	lines, err := carts.Lines(ctx)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, apperror.Validation("No items to pay for.")
	}
	items := make([]Item, 0, len(lines))
	for _, l := range lines {
		items = append(items, Item{ProductID: l.ID, Qty: l.Qty})
	}
	return items, nil
}

func addressLine(ctx context.Context, local localstore.Store, id string) (string, error) {
	addresses, err := localstore.Load[[]models.Address](ctx, local, localstore.KeyAddresses)
	if err != nil {
		return "", apperror.Persistence("failed to read addresses", err)
	}
	for _, a := range addresses {
		if a.ID == id {
			return a.Line, nil
		}
	}
	return "", apperror.Validation("Delivery address not found")
}
