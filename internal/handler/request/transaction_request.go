package request

// BroadcastRequest 广播已签名交易
type BroadcastRequest struct {
	Type      string `json:"type" binding:"required,oneof=eip1559 legacy"`
	SignedHex string `json:"signed_hex" binding:"required,hexdata,max=262144"`
}

// ReceiptRequest 查询回执 (路径参数)
type ReceiptRequest struct {
	Hash string `uri:"hash" binding:"required,txhash"`
}
