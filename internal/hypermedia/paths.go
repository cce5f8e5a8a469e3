package hypermedia

import "net/url"

func EntryPath() string    { return "/" }
func AccountsPath() string { return "/accounts/" }
func OrderBookPath() string {
	return "/orderbook/"
}

func AccountPath(publicID string) string {
	return AccountsPath() + url.PathEscape(publicID) + "/"
}

func OrdersPath(publicID string) string    { return AccountPath(publicID) + "orders/" }
func PositionsPath(publicID string) string { return AccountPath(publicID) + "positions/" }
func BalancePath(publicID string) string   { return AccountPath(publicID) + "balance/" }
func HistoryPath(publicID string) string   { return AccountPath(publicID) + "history/" }

func OrderPath(publicID, orderID string) string {
	return OrdersPath(publicID) + url.PathEscape(orderID) + "/"
}

func PositionPath(publicID, symbol string) string {
	return PositionsPath(publicID) + url.PathEscape(symbol) + "/"
}

// PriceActionPath links recent trades; an empty symbol links the bare
// collection for clients to fill in.
func PriceActionPath(symbol string) string {
	if symbol == "" {
		return "/priceaction/"
	}
	return "/priceaction/?" + url.Values{"symbol": {symbol}}.Encode()
}
