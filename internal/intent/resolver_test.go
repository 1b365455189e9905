package intent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/tablechat/tablechat/internal/dataset"
)

type fakeCapability struct {
	response string
	err      error
	lastReq  Request
}

func (f *fakeCapability) Complete(_ context.Context, req Request) (string, error) {
	f.lastReq = req
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func storeWithSales(t *testing.T) *dataset.Store {
	t.Helper()
	store := dataset.NewStore()
	err := store.Put("sales.csv", dataset.Table{Columns: []dataset.Column{
		{Name: "region", Type: dataset.TypeText, Values: []dataset.Value{dataset.Text("east"), dataset.Text("west")}},
		{Name: "sales", Type: dataset.TypeNumeric, Values: []dataset.Value{dataset.Number(10), dataset.Number(20)}},
	}})
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	return store
}

func TestResolveTextResponse(t *testing.T) {
	capability := &fakeCapability{response: `{"response_type":"text","answer":"Looks healthy."}`}
	resolver := &Resolver{Capability: capability}

	intent, err := resolver.Resolve(context.Background(), storeWithSales(t), "how are sales?", nil)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if intent.Kind != KindText || intent.Answer != "Looks healthy." {
		t.Fatalf("intent = %+v", intent)
	}
}

func TestResolveTableResponse(t *testing.T) {
	capability := &fakeCapability{response: `{
		"response_type": "table_expr",
		"answer": "Filtered to the east region.",
		"query_expression": [{"csv_file": "sales.csv", "expr": "region == 'east'"}]
	}`}
	resolver := &Resolver{Capability: capability}

	intent, err := resolver.Resolve(context.Background(), storeWithSales(t), "show east", nil)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if intent.Kind != KindTable || len(intent.Bindings) != 1 {
		t.Fatalf("intent = %+v", intent)
	}
	if intent.Bindings[0].DatasetID != "sales.csv" {
		t.Fatalf("binding = %+v", intent.Bindings[0])
	}
}

func TestResolveChartResponse(t *testing.T) {
	capability := &fakeCapability{response: "```json\n" + `{
		"response_type": "visualization",
		"answer": "Here is the chart.",
		"visualization": {"viz_type": "bar", "csv_file": "sales.csv", "x_column": "region", "y_column": "sales", "title": "Sales"}
	}` + "\n```"}
	resolver := &Resolver{Capability: capability}

	intent, err := resolver.Resolve(context.Background(), storeWithSales(t), "chart it", nil)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if intent.Kind != KindChart || intent.Chart == nil {
		t.Fatalf("intent = %+v", intent)
	}
	if intent.Chart.X != "region" || intent.Chart.Y != "sales" {
		t.Fatalf("chart = %+v", intent.Chart)
	}
}

func TestResolveDowngrades(t *testing.T) {
	cases := []struct {
		name     string
		response string
	}{
		{"not json", "the answer is 42"},
		{"unknown response type", `{"response_type":"sql","answer":"x"}`},
		{"unknown dataset", `{"response_type":"table_expr","answer":"x","query_expression":[{"csv_file":"nope.csv","expr":"a > 1"}]}`},
		{"empty expression", `{"response_type":"table_expr","answer":"x","query_expression":[{"csv_file":"sales.csv","expr":""}]}`},
		{"table without expressions", `{"response_type":"table_expr","answer":"x"}`},
		{"chart without spec", `{"response_type":"visualization","answer":"x"}`},
		{"chart unknown dataset", `{"response_type":"visualization","answer":"x","visualization":{"viz_type":"bar","csv_file":"nope.csv","x_column":"region","y_column":"sales"}}`},
		{"chart unknown column", `{"response_type":"visualization","answer":"x","visualization":{"viz_type":"bar","csv_file":"sales.csv","x_column":"region","y_column":"revenue"}}`},
	}
	for _, tc := range cases {
		resolver := &Resolver{Capability: &fakeCapability{response: tc.response}}
		intent, err := resolver.Resolve(context.Background(), storeWithSales(t), "question", nil)
		if err != nil {
			t.Fatalf("%s: Resolve() error = %v", tc.name, err)
		}
		if intent.Kind != KindText || intent.Answer != FallbackAnswer {
			t.Fatalf("%s: intent = %+v, want fallback", tc.name, intent)
		}
	}
}

func TestResolveCapabilityFailureIsDistinct(t *testing.T) {
	resolver := &Resolver{Capability: &fakeCapability{err: errors.New("connection refused")}}
	_, err := resolver.Resolve(context.Background(), storeWithSales(t), "question", nil)
	if !errors.Is(err, ErrCapability) {
		t.Fatalf("error = %v, want ErrCapability", err)
	}
}

func TestResolveSendsSchemaAndHistory(t *testing.T) {
	capability := &fakeCapability{response: `{"response_type":"text","answer":"ok"}`}
	resolver := &Resolver{Capability: capability}
	history := []Turn{
		{Role: RoleUser, Content: "hello"},
		{Role: RoleAssistant, Content: "hi"},
	}

	if _, err := resolver.Resolve(context.Background(), storeWithSales(t), "next question", history); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if !strings.Contains(capability.lastReq.System, "File: sales.csv") {
		t.Fatalf("system prompt missing schema summary:\n%s", capability.lastReq.System)
	}
	if len(capability.lastReq.Turns) != 3 {
		t.Fatalf("turns = %d", len(capability.lastReq.Turns))
	}
	last := capability.lastReq.Turns[2]
	if last.Role != RoleUser || last.Content != "next question" {
		t.Fatalf("last turn = %+v", last)
	}
}
