package types

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestLabPanelNullMeansNotMeasured(t *testing.T) {
	var panel LabPanel
	if err := json.Unmarshal([]byte(`{"hemoglobina":13.5,"glucemia":null,"tsh":"2.1"}`), &panel); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if !panel.Hemoglobin.Valid || !panel.Hemoglobin.Decimal.Equal(decimal.RequireFromString("13.5")) {
		t.Fatalf("unexpected hemoglobin %+v", panel.Hemoglobin)
	}
	if panel.Glucose.Valid {
		t.Fatalf("null glucose should not be measured")
	}
	if panel.Urea.Valid {
		t.Fatalf("missing urea should not be measured")
	}
	if got := panel.Measured(); !reflect.DeepEqual(got, []string{"hemoglobina", "tsh"}) {
		t.Fatalf("unexpected measured list %v", got)
	}

	out, err := json.Marshal(panel)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	body := string(out)
	if !strings.Contains(body, `"hemoglobina":13.5`) {
		t.Fatalf("expected unquoted number, got %s", body)
	}
	if !strings.Contains(body, `"glucemia":null`) {
		t.Fatalf("expected null for unmeasured glucose, got %s", body)
	}
}

func TestLabPanelZeroIsMeasured(t *testing.T) {
	var panel LabPanel
	if err := json.Unmarshal([]byte(`{"pcr":0}`), &panel); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !panel.CRP.Valid {
		t.Fatal("zero must be a measured value")
	}
	if got := panel.Measured(); !reflect.DeepEqual(got, []string{"pcr"}) {
		t.Fatalf("unexpected measured list %v", got)
	}
}
