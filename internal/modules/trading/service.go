package trading

import (
	"fmt"
	"strings"
	"time"

	"github.com/AnupBarde45/SEBI-final-sub001/internal/events"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Service executes virtual trades against stored daily prices
type Service struct {
	portfolios   *PortfolioRepository
	prices       *PriceRepository
	startingCash float64
	eventBus     *events.Bus
	log          zerolog.Logger
}

// NewService creates a trading service. startingCash seeds new portfolios.
func NewService(
	portfolios *PortfolioRepository,
	prices *PriceRepository,
	startingCash float64,
	eventBus *events.Bus,
	log zerolog.Logger,
) *Service {
	if startingCash <= 0 {
		startingCash = 1000000
	}
	return &Service{
		portfolios:   portfolios,
		prices:       prices,
		startingCash: startingCash,
		eventBus:     eventBus,
		log:          log.With().Str("service", "trading").Logger(),
	}
}

// Portfolio returns the user's portfolio, creating it on first access
func (s *Service) Portfolio(userID string) (*Portfolio, error) {
	return s.portfolios.GetOrCreate(userID, s.startingCash)
}

// Buy executes a market buy at the latest close
func (s *Service) Buy(userID, symbol string, quantity int) (*Trade, error) {
	return s.execute(userID, symbol, SideBuy, quantity)
}

// Sell executes a market sell at the latest close
func (s *Service) Sell(userID, symbol string, quantity int) (*Trade, error) {
	return s.execute(userID, symbol, SideSell, quantity)
}

func (s *Service) execute(userID, symbol, side string, quantity int) (*Trade, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}
	if quantity <= 0 {
		return nil, fmt.Errorf("quantity must be positive")
	}

	price, err := s.prices.LatestClose(symbol)
	if err != nil {
		return nil, err
	}

	portfolio, err := s.portfolios.GetOrCreate(userID, s.startingCash)
	if err != nil {
		return nil, err
	}

	holding, err := s.portfolios.Holding(userID, symbol)
	if err != nil {
		return nil, err
	}

	var newCash, newAvgPrice float64
	var newQuantity int
	cost := price * float64(quantity)

	switch side {
	case SideBuy:
		if cost > portfolio.Cash {
			return nil, fmt.Errorf("insufficient cash: need %.2f, have %.2f", cost, portfolio.Cash)
		}
		newCash = portfolio.Cash - cost
		if holding == nil {
			newQuantity = quantity
			newAvgPrice = price
		} else {
			newQuantity = holding.Quantity + quantity
			// Cost-weighted average entry price
			newAvgPrice = (holding.AvgPrice*float64(holding.Quantity) + cost) / float64(newQuantity)
		}

	case SideSell:
		if holding == nil || holding.Quantity < quantity {
			held := 0
			if holding != nil {
				held = holding.Quantity
			}
			return nil, fmt.Errorf("insufficient holdings: selling %d, have %d", quantity, held)
		}
		newCash = portfolio.Cash + cost
		newQuantity = holding.Quantity - quantity
		newAvgPrice = holding.AvgPrice

	default:
		return nil, fmt.Errorf("unknown trade side %q", side)
	}

	trade := Trade{
		ID:        uuid.New().String(),
		UserID:    userID,
		Symbol:    symbol,
		Side:      side,
		Quantity:  quantity,
		Price:     price,
		CreatedAt: time.Now().Unix(),
	}

	if err := s.portfolios.ExecuteTrade(trade, newCash, newQuantity, newAvgPrice); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("user_id", userID).
		Str("symbol", symbol).
		Str("side", side).
		Int("quantity", quantity).
		Float64("price", price).
		Msg("Trade executed")
	s.eventBus.Publish(events.Event{
		Type: events.TradeExecuted,
		Data: map[string]interface{}{
			"user_id":  userID,
			"symbol":   symbol,
			"side":     side,
			"quantity": quantity,
			"price":    price,
		},
	})

	return &trade, nil
}

// Valuation prices all holdings at their latest close. Symbols that lost
// their price history are valued at entry price and logged.
func (s *Service) Valuation(userID string) (*Valuation, error) {
	portfolio, err := s.portfolios.GetOrCreate(userID, s.startingCash)
	if err != nil {
		return nil, err
	}

	holdings, err := s.portfolios.Holdings(userID)
	if err != nil {
		return nil, err
	}

	valuation := &Valuation{
		UserID:     userID,
		Cash:       portfolio.Cash,
		Holdings:   make([]HoldingValuation, 0, len(holdings)),
		TotalValue: portfolio.Cash,
	}

	for _, h := range holdings {
		price, err := s.prices.LatestClose(h.Symbol)
		if err != nil {
			s.log.Warn().Err(err).Str("symbol", h.Symbol).Msg("No current price, valuing at entry")
			price = h.AvgPrice
		}

		marketValue := price * float64(h.Quantity)
		valuation.Holdings = append(valuation.Holdings, HoldingValuation{
			Symbol:       h.Symbol,
			Quantity:     h.Quantity,
			AvgPrice:     h.AvgPrice,
			CurrentPrice: price,
			MarketValue:  marketValue,
			UnrealizedPL: marketValue - h.AvgPrice*float64(h.Quantity),
		})
		valuation.TotalValue += marketValue
	}

	return valuation, nil
}

// Trades returns the user's trade history, newest first
func (s *Service) Trades(userID string, limit int) ([]Trade, error) {
	return s.portfolios.Trades(userID, limit)
}
