package request

type AddFundsRequest struct {
	Amount string `json:"amount" validate:"required,money"`
}

type WalletStatusRequest struct {
	Active *bool `json:"active" validate:"required"`
}

type WalletHistoryRequest struct {
	Limit int `json:"limit" validate:"min=1,max=100"`
}
