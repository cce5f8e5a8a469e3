package hypermedia

import "net/http"

func rel(name string) string { return Namespace + ":" + name }

func link(r, href, title string) Edge {
	return Edge{Rel: r, Control: Control{Href: href, Method: http.MethodGet, Title: title}}
}

func jsonControl(r, href, method, title string, schema *Schema) Edge {
	return Edge{Rel: r, Control: Control{Href: href, Method: method, Encoding: "json", Title: title, Schema: schema}}
}

// Generic relations.

func Self(href string) Edge       { return link("self", href, "") }
func Up(href, title string) Edge  { return link("up", href, title) }
func Collection(href string) Edge { return link("collection", href, "") }

// Entry.

func AccountsAll() Edge { return link(rel("accounts-all"), AccountsPath(), "All accounts") }

// PriceAction links recent trades for symbol. Without a symbol the href is
// an RFC 6570 template the client expands.
func PriceAction(symbol string) Edge {
	if symbol == "" {
		e := link(rel("priceaction"), PriceActionPath("")+"{?symbol}", "Recent trades for a symbol")
		e.Control.IsHrefTemplate = true
		return e
	}
	return link(rel("priceaction"), PriceActionPath(symbol), "Recent trades for "+symbol)
}
func OrderBook() Edge { return link(rel("orderbook"), OrderBookPath(), "Order book") }

// Accounts.

func AddAccount() Edge {
	return jsonControl(rel("add-account"), AccountsPath(), http.MethodPost, "Add a new account", AccountSchema)
}

func DeleteAccount(publicID string) Edge {
	return Edge{Rel: rel("delete"), Control: Control{Href: AccountPath(publicID), Method: http.MethodDelete, Title: "Delete this account"}}
}

func OrdersAll(publicID string) Edge {
	return link(rel("orders-all"), OrdersPath(publicID), "Orders of this account")
}

func PositionsAll(publicID string) Edge {
	return link(rel("positions-all"), PositionsPath(publicID), "Positions of this account")
}

func Balance(publicID string) Edge {
	return link(rel("balance"), BalancePath(publicID), "Account balance")
}

func History(publicID string) Edge {
	return link(rel("history"), HistoryPath(publicID), "Transaction history")
}

// Orders.

func AddOrder(publicID string) Edge {
	return jsonControl(rel("add-order"), OrdersPath(publicID), http.MethodPost, "Add a new order", OrderSchema)
}

func DeleteOrder(publicID, orderID string) Edge {
	return Edge{Rel: rel("delete"), Control: Control{Href: OrderPath(publicID, orderID), Method: http.MethodDelete, Title: "Delete this order"}}
}

// Positions.

func EditPosition(publicID, symbol string) Edge {
	return jsonControl("edit", PositionPath(publicID, symbol), http.MethodPatch, "Change leverage", LeverageSchema)
}
