package service

import (
	"github.com/mmynk/coffeeledger/internal/models"
	"github.com/mmynk/coffeeledger/internal/money"
)

type GetStateRequest struct{}

type GetStateResponse struct {
	Prices          map[string]money.Money `json:"prices"`
	Balances        map[string]money.Money `json:"balances"`
	History         []models.Round         `json:"history"`
	Standings       []models.Standing      `json:"standings"`
	SettlementModel string                 `json:"settlement_model"`
}

// PreviewNextRequest and RunRoundRequest share a shape: an empty People list
// means everyone with a price.
type PreviewNextRequest struct {
	People      []string `json:"people"`
	TieStrategy string   `json:"tie_strategy,omitempty"`
}

type PreviewNextResponse struct {
	NextPayer      string      `json:"next_payer"`
	TotalCost      money.Money `json:"total_cost"`
	IncludedPeople []string    `json:"included_people"`
	TieStrategy    string      `json:"tie_strategy"`
}

type RunRoundRequest struct {
	People      []string `json:"people"`
	TieStrategy string   `json:"tie_strategy,omitempty"`
}

type RunRoundResponse struct {
	Timestamp      string                 `json:"timestamp"`
	Payer          string                 `json:"payer"`
	TotalCost      money.Money            `json:"total_cost"`
	IncludedPeople []string               `json:"included_people"`
	TieStrategy    string                 `json:"tie_strategy"`
	Prices         map[string]money.Money `json:"prices"`
	Balances       map[string]money.Money `json:"balances"`
	History        []models.Round         `json:"history"`
}

// SetPriceRequest.Price is a JSON number or a string such as "$4.50".
type SetPriceRequest struct {
	Name  string `json:"name"`
	Price any    `json:"price"`
}

type SetPriceResponse struct {
	Prices   map[string]money.Money `json:"prices"`
	Balances map[string]money.Money `json:"balances"`
}

type RemovePersonRequest struct {
	Name string `json:"name"`
}

type RemovePersonResponse struct {
	Removed  bool                   `json:"removed"`
	Prices   map[string]money.Money `json:"prices"`
	Balances map[string]money.Money `json:"balances"`
}

type ResetBalancesRequest struct {
	ClearHistory bool `json:"clear_history"`
}

type ResetBalancesResponse struct {
	Balances map[string]money.Money `json:"balances"`
	History  []models.Round         `json:"history"`
}

type ClearHistoryRequest struct{}

type ClearHistoryResponse struct {
	History []models.Round `json:"history"`
}
