package checkout

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/krushee/krushee-backend-go/apperror"
	"github.com/krushee/krushee-backend-go/localstore"
	"github.com/krushee/krushee-backend-go/models"
	"github.com/krushee/krushee-backend-go/utils"
)

// Cards is the shopper's list of saved (masked) cards.
type Cards struct {
	store localstore.Store
}

func NewCards(store localstore.Store) *Cards {
	return &Cards{store: store}
}

func (c *Cards) List(ctx context.Context) ([]models.SavedCard, error) {
	cards, err := localstore.Load[[]models.SavedCard](ctx, c.store, localstore.KeyCards)
	if err != nil {
		return nil, apperror.Persistence("failed to read saved cards", err)
	}
	if cards == nil {
		cards = []models.SavedCard{}
	}
	return cards, nil
}

func (c *Cards) Add(ctx context.Context, card models.SavedCard) (models.SavedCard, error) {
	card.Last4 = strings.TrimSpace(card.Last4)
	if err := utils.Validator().Struct(card); err != nil {
		return models.SavedCard{}, apperror.Validation(utils.ValidationMessage(err))
	}
	if card.ID == "" {
		card.ID = uuid.NewString()
	}
	cards, err := c.List(ctx)
	if err != nil {
		return models.SavedCard{}, err
	}
	cards = append(cards, card)
	if err := localstore.Save(ctx, c.store, localstore.KeyCards, cards); err != nil {
		return models.SavedCard{}, apperror.Persistence("failed to save card", err)
	}
	return card, nil
}

func (c *Cards) Remove(ctx context.Context, id string) ([]models.SavedCard, error) {
	cards, err := c.List(ctx)
	if err != nil {
		return nil, err
	}
	next := make([]models.SavedCard, 0, len(cards))
	for _, card := range cards {
		if card.ID != id {
			next = append(next, card)
		}
	}
	if err := localstore.Save(ctx, c.store, localstore.KeyCards, next); err != nil {
		return nil, apperror.Persistence("failed to save cards", err)
	}
	return next, nil
}
