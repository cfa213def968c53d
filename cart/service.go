package cart

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/krushee/krushee-backend-go/apperror"
	"github.com/krushee/krushee-backend-go/localstore"
	"github.com/krushee/krushee-backend-go/models"
)

// Service is the cart of one shopper session. Every mutation is a read-modify-write
// of the whole cart followed by a storage-change broadcast, so two writers racing on
// the same session resolve last-writer-wins.
type Service struct {
	store localstore.Store
	log   *zap.Logger
}

func NewService(store localstore.Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, log: logger.Named("cart")}
}

// Lines returns the persisted cart; a missing cart is empty.
func (s *Service) Lines(ctx context.Context) ([]models.CartLine, error) {
	lines, err := localstore.Load[[]models.CartLine](ctx, s.store, localstore.KeyCart)
	if err != nil {
		return nil, apperror.Persistence("failed to read cart", err)
	}
	if lines == nil {
		lines = []models.CartLine{}
	}
	return lines, nil
}

func (s *Service) save(ctx context.Context, lines []models.CartLine) error {
	if err := localstore.Save(ctx, s.store, localstore.KeyCart, lines); err != nil {
		return apperror.Persistence("failed to save cart", err)
	}
	return nil
}

func (s *Service) AddOrIncrement(ctx context.Context, p models.Product, qty int) ([]models.CartLine, error) {
	lines, err := s.Lines(ctx)
	if err != nil {
		return nil, err
	}
	if qty <= 0 {
		return lines, nil
	}
	next := AddOrIncrement(lines, p, qty)
	if err := s.save(ctx, next); err != nil {
		return nil, err
	}
	s.log.Debug("cart line added", zap.String("product_id", p.ID), zap.Int("qty", qty))
	return next, nil
}

func (s *Service) ChangeQuantity(ctx context.Context, id string, delta int) ([]models.CartLine, error) {
	lines, err := s.Lines(ctx)
	if err != nil {
		return nil, err
	}
	next := ChangeQuantity(lines, id, delta)
	if err := s.save(ctx, next); err != nil {
		return nil, err
	}
	return next, nil
}

func (s *Service) RemoveItem(ctx context.Context, id string) ([]models.CartLine, error) {
	lines, err := s.Lines(ctx)
	if err != nil {
		return nil, err
	}
	next := RemoveItem(lines, id)
	if err := s.save(ctx, next); err != nil {
		return nil, err
	}
	return next, nil
}

// Clear empties the cart.
func (s *Service) Clear(ctx context.Context) error {
	if err := localstore.Remove(ctx, s.store, localstore.KeyCart); err != nil {
		return apperror.Persistence("failed to clear cart", err)
	}
	return nil
}

// Totals prices the cart with at most one coupon, selected by code. An empty code
// means no coupon.
func (s *Service) Totals(ctx context.Context, couponCode string) (Totals, error) {
	lines, err := s.Lines(ctx)
	if err != nil {
		return Totals{}, err
	}
	var applied *models.Coupon
	if strings.TrimSpace(couponCode) != "" {
		applied, err = s.ResolveCoupon(ctx, couponCode)
		if err != nil {
			return Totals{}, err
		}
	}
	return ComputeTotals(lines, applied), nil
}

func (s *Service) Coupons(ctx context.Context) ([]models.Coupon, error) {
	coupons, err := localstore.Load[[]models.Coupon](ctx, s.store, localstore.KeyCoupons)
	if err != nil {
		return nil, apperror.Persistence("failed to read coupons", err)
	}
	if coupons == nil {
		coupons = []models.Coupon{}
	}
	return coupons, nil
}

// MaxCouponValue bounds a granted coupon. Coupons only lower the displayed totals;
// checkout always charges price x qty.
const MaxCouponValue = 1000

// GrantCoupon stores a coupon for the session, replacing one with the same code.
func (s *Service) GrantCoupon(ctx context.Context, c models.Coupon) ([]models.Coupon, error) {
	c.Code = strings.TrimSpace(c.Code)
	if c.Code == "" {
		return nil, apperror.Validation("Coupon code is required")
	}
	if c.Value < 0 {
		return nil, apperror.Validation("Coupon value cannot be negative")
	}
	if c.Value > MaxCouponValue {
		return nil, apperror.Validation("Coupon value is too large")
	}
	coupons, err := s.Coupons(ctx)
	if err != nil {
		return nil, err
	}
	replaced := false
	for i := range coupons {
		if strings.EqualFold(coupons[i].Code, c.Code) {
			coupons[i] = c
			replaced = true
		}
	}
	if !replaced {
		coupons = append(coupons, c)
	}
	if err := localstore.Save(ctx, s.store, localstore.KeyCoupons, coupons); err != nil {
		return nil, apperror.Persistence("failed to save coupons", err)
	}
	return coupons, nil
}

// ResolveCoupon finds an applicable coupon by code (case-insensitive).
func (s *Service) ResolveCoupon(ctx context.Context, code string) (*models.Coupon, error) {
	coupons, err := s.Coupons(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range coupons {
		if !strings.EqualFold(c.Code, strings.TrimSpace(code)) {
			continue
		}
		if c.Used {
			return nil, apperror.Validation("Coupon " + c.Code + " has already been used")
		}
		if c.Value < 0 {
			return nil, apperror.Validation("Coupon " + c.Code + " is not valid")
		}
		return &c, nil
	}
	return nil, apperror.Validation("Coupon not found")
}

// MarkCouponUsed flags the coupon with code as used so it cannot be applied again.
func (s *Service) MarkCouponUsed(ctx context.Context, code string) ([]models.Coupon, error) {
	coupons, err := s.Coupons(ctx)
	if err != nil {
		return nil, err
	}
	code = strings.TrimSpace(code)
	found := false
	for i := range coupons {
		if strings.EqualFold(coupons[i].Code, code) {
			coupons[i].Used = true
			found = true
		}
	}
	if !found {
		return nil, apperror.Validation("Coupon not found")
	}
	if err := localstore.Save(ctx, s.store, localstore.KeyCoupons, coupons); err != nil {
		return nil, apperror.Persistence("failed to save coupons", err)
	}
	return coupons, nil
}

// SaveForLater moves a cart line to the wishlist.
func (s *Service) SaveForLater(ctx context.Context, id string) ([]models.CartLine, error) {
	lines, err := s.Lines(ctx)
	if err != nil {
		return nil, err
	}
	line, ok := Find(lines, id)
	if !ok {
		return nil, apperror.New(apperror.KindProductNotFound, "Item is not in the cart")
	}

	wishlist, err := s.Wishlist(ctx)
	if err != nil {
		return nil, err
	}
	wishlist = append(wishlist, models.WishlistItem{
		ID:    line.ID,
		Name:  line.Name,
		Image: line.Image,
		Price: line.Price,
		MRP:   line.MRP,
	})
	if err := localstore.Save(ctx, s.store, localstore.KeyWishlist, wishlist); err != nil {
		return nil, apperror.Persistence("failed to save wishlist", err)
	}

	next := RemoveItem(lines, id)
	if err := s.save(ctx, next); err != nil {
		return nil, err
	}
	return next, nil
}

func (s *Service) Wishlist(ctx context.Context) ([]models.WishlistItem, error) {
	items, err := localstore.Load[[]models.WishlistItem](ctx, s.store, localstore.KeyWishlist)
	if err != nil {
		return nil, apperror.Persistence("failed to read wishlist", err)
	}
	if items == nil {
		items = []models.WishlistItem{}
	}
	return items, nil
}

func (s *Service) RemoveWishlistItem(ctx context.Context, id string) ([]models.WishlistItem, error) {
	items, err := s.Wishlist(ctx)
	if err != nil {
		return nil, err
	}
	next := make([]models.WishlistItem, 0, len(items))
	for _, it := range items {
		if it.ID != id {
			next = append(next, it)
		}
	}
	if err := localstore.Save(ctx, s.store, localstore.KeyWishlist, next); err != nil {
		return nil, apperror.Persistence("failed to save wishlist", err)
	}
	return next, nil
}
