package hypermedia

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"
)

func render(t *testing.T, d Document) map[string]any {
	t.Helper()
	raw, err := json.Marshal(d)
	assert.NilError(t, err)
	var out map[string]any
	assert.NilError(t, json.Unmarshal(raw, &out))
	return out
}

func TestDocumentRendersMason(t *testing.T) {
	d := New(map[string]any{"accountname": "user1", "api_public": "PUB1"}).
		With(Self(AccountPath("PUB1")), Collection(AccountsPath()), DeleteAccount("PUB1"))

	out := render(t, d)
	assert.Equal(t, out["accountname"], "user1")
	assert.Equal(t, out["api_public"], "PUB1")

	controls := out["@controls"].(map[string]any)
	assert.Equal(t, len(controls), 3)
	self := controls["self"].(map[string]any)
	assert.Equal(t, self["href"], "/accounts/PUB1/")
	del := controls["crypto:delete"].(map[string]any)
	assert.Equal(t, del["method"], http.MethodDelete)

	ns := out["@namespaces"].(map[string]any)["crypto"].(map[string]any)
	assert.Equal(t, ns["name"], LinkRelationsPath)

	_, hasItems := out["items"]
	assert.Assert(t, !hasItems)
	_, hasErr := out["@error"]
	assert.Assert(t, !hasErr)
}

func TestDocumentIsImmutable(t *testing.T) {
	data := map[string]any{"a": 1}
	base := New(data)
	data["a"] = 2

	withSelf := base.With(Self("/x/"))
	withBoth := withSelf.With(Up("/", "root"))

	assert.Equal(t, base.Data()["a"], 1)
	assert.Equal(t, len(base.Rels()), 0)
	assert.Equal(t, len(withSelf.Rels()), 1)
	assert.Equal(t, len(withBoth.Rels()), 2)

	got := withBoth.Data()
	got["a"] = 3
	assert.Equal(t, withBoth.Data()["a"], 1)
}

func TestDocumentItems(t *testing.T) {
	empty := render(t, New(nil).With(Self(AccountsPath())).WithItems())
	items, ok := empty["items"].([]any)
	assert.Assert(t, ok, "empty collections still render items")
	assert.Equal(t, len(items), 0)

	col := New(nil).WithItems(
		New(map[string]any{"order_id": "1"}).With(Self(OrderPath("PUB1", "1"))),
		New(map[string]any{"order_id": "2"}).With(Self(OrderPath("PUB1", "2"))),
	)
	out := render(t, col)
	items = out["items"].([]any)
	assert.Equal(t, len(items), 2)
	second := items[1].(map[string]any)
	assert.Equal(t, second["order_id"], "2")
	assert.Equal(t, second["@controls"].(map[string]any)["self"].(map[string]any)["href"], "/accounts/PUB1/orders/2/")
}

func TestErrorDocument(t *testing.T) {
	out := render(t, ErrorDocument(http.StatusNotFound, "Not found", "no such account", "/accounts/x/"))
	assert.Equal(t, out["resource_url"], "/accounts/x/")
	e := out["@error"].(map[string]any)
	assert.Equal(t, e["@message"], "Not found")
	assert.DeepEqual(t, e["@messages"], []any{"no such account"})
	assert.Equal(t, e["@httpStatusCode"], float64(404))
}

func TestPaths(t *testing.T) {
	assert.Equal(t, AccountPath("PUB1"), "/accounts/PUB1/")
	assert.Equal(t, OrderPath("PUB1", "o-1"), "/accounts/PUB1/orders/o-1/")
	assert.Equal(t, PositionPath("PUB1", "XBTUSD"), "/accounts/PUB1/positions/XBTUSD/")
	assert.Equal(t, AccountPath("a/b"), "/accounts/a%2Fb/")
	assert.Equal(t, PriceActionPath("XBTUSD"), "/priceaction/?symbol=XBTUSD")
	assert.Equal(t, PriceActionPath(""), "/priceaction/")
}

func TestMutatingControlsCarrySchema(t *testing.T) {
	cases := []struct {
		edge   Edge
		rel    string
		method string
		schema *Schema
	}{
		{AddAccount(), "crypto:add-account", http.MethodPost, AccountSchema},
		{AddOrder("PUB1"), "crypto:add-order", http.MethodPost, OrderSchema},
		{EditPosition("PUB1", "XBTUSD"), "edit", http.MethodPatch, LeverageSchema},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.edge.Rel, tc.rel)
		assert.Equal(t, tc.edge.Control.Method, tc.method)
		assert.Equal(t, tc.edge.Control.Encoding, "json")
		assert.Equal(t, tc.edge.Control.Schema, tc.schema)
	}

	out := render(t, New(nil).With(AddOrder("PUB1")))
	schema := out["@controls"].(map[string]any)["crypto:add-order"].(map[string]any)["schema"].(map[string]any)
	assert.Assert(t, is.Contains(schema["required"], "side"))
}

func TestSchemaDecode(t *testing.T) {
	type order struct {
		Symbol string      `json:"symbol"`
		Side   string      `json:"side"`
		Size   int64       `json:"size"`
		Price  json.Number `json:"price"`
	}

	var o order
	err := OrderSchema.Decode([]byte(`{"symbol":"XBTUSD","side":"Buy","size":20,"price":3837.5}`), &o)
	assert.NilError(t, err)
	assert.Equal(t, o.Size, int64(20))
	assert.Equal(t, o.Price.String(), "3837.5")

	cases := []struct {
		name    string
		body    string
		invalid bool
	}{
		{"not json", `{"symbol":`, true},
		{"trailing data", `{} {}`, true},
		{"missing side", `{"symbol":"XBTUSD","size":20,"price":1}`, false},
		{"fractional size", `{"symbol":"XBTUSD","side":"Buy","size":1.5,"price":1}`, false},
		{"zero size", `{"symbol":"XBTUSD","side":"Buy","size":0,"price":1}`, false},
		{"negative price", `{"symbol":"XBTUSD","side":"Buy","size":1,"price":-1}`, false},
		{"bad side", `{"symbol":"XBTUSD","side":"buy","size":1,"price":1}`, false},
		{"string price", `{"symbol":"XBTUSD","side":"Buy","size":1,"price":"1"}`, false},
		{"array", `[]`, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var dst order
			err := OrderSchema.Decode([]byte(tc.body), &dst)
			assert.Assert(t, err != nil)
			if tc.invalid {
				assert.Assert(t, errors.Is(err, ErrInvalidJSON))
				return
			}
			var se *SchemaError
			assert.Assert(t, errors.As(err, &se), "got %v", err)
			assert.Equal(t, se.Schema, "add-order")
			assert.Assert(t, len(se.Violations) > 0)
			assert.DeepEqual(t, dst, order{})
		})
	}
}

func TestLeverageAndAccountSchemas(t *testing.T) {
	var lev struct {
		Leverage float64 `json:"leverage"`
	}
	assert.NilError(t, LeverageSchema.Decode([]byte(`{"leverage":2}`), &lev))
	assert.Equal(t, lev.Leverage, 2.0)
	assert.NilError(t, LeverageSchema.Decode([]byte(`{"leverage":0}`), &lev))

	var se *SchemaError
	assert.Assert(t, errors.As(LeverageSchema.Decode([]byte(`{"leverage":-1}`), &lev), &se))
	assert.Assert(t, errors.As(LeverageSchema.Decode([]byte(`{}`), &lev), &se))

	var acc map[string]string
	assert.NilError(t, AccountSchema.Decode([]byte(`{"accountname":"user1","api_public":"PUB1","api_secret":"SEC1"}`), &acc))
	assert.Assert(t, errors.As(AccountSchema.Decode([]byte(`{"accountname":"user1","api_public":"PUB1"}`), &acc), &se))
	assert.Assert(t, errors.As(AccountSchema.Decode([]byte(`{"accountname":"user1","api_public":"PUB1","api_secret":5}`), &acc), &se))
	assert.NilError(t, AccountSchema.Decode([]byte(`{"accountname":"user1","api_public":"a-B_9","api_secret":"SEC1"}`), &acc))
	for _, key := range []string{"a/b", "a b", "a?b", "..", "a%2Fb"} {
		body := `{"accountname":"user1","api_public":"` + key + `","api_secret":"SEC1"}`
		assert.Assert(t, errors.As(AccountSchema.Decode([]byte(body), &acc), &se), "api_public %q", key)
	}
}

func TestPriceActionTemplate(t *testing.T) {
	e := PriceAction("")
	assert.Equal(t, e.Control.Href, "/priceaction/{?symbol}")
	assert.Assert(t, e.Control.IsHrefTemplate)

	e = PriceAction("XBTUSD")
	assert.Equal(t, e.Control.Href, "/priceaction/?symbol=XBTUSD")
	assert.Assert(t, !e.Control.IsHrefTemplate)
}
