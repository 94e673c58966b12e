package types

import "github.com/shopspring/decimal"

func init() {
	// lab values and body measurements are plain JSON numbers for clients
	decimal.MarshalJSONWithoutQuotes = true
}

// LabPanel holds the standard laboratory values recorded on a consultation.
// A null value means the analyte was not measured, never zero.
type LabPanel struct {
	Hemoglobin          decimal.NullDecimal `json:"hemoglobina" gorm:"column:hemoglobin;type:numeric(10,3)"`
	Hematocrit          decimal.NullDecimal `json:"hematocrito" gorm:"column:hematocrit;type:numeric(10,3)"`
	WhiteCells          decimal.NullDecimal `json:"globulosBlancos" gorm:"column:white_cells;type:numeric(10,3)"`
	Platelets           decimal.NullDecimal `json:"plaquetas" gorm:"column:platelets;type:numeric(10,3)"`
	Glucose             decimal.NullDecimal `json:"glucemia" gorm:"column:glucose;type:numeric(10,3)"`
	Urea                decimal.NullDecimal `json:"urea" gorm:"column:urea;type:numeric(10,3)"`
	Creatinine          decimal.NullDecimal `json:"creatinina" gorm:"column:creatinine;type:numeric(10,3)"`
	UricAcid            decimal.NullDecimal `json:"acidoUrico" gorm:"column:uric_acid;type:numeric(10,3)"`
	TotalCholesterol    decimal.NullDecimal `json:"colesterolTotal" gorm:"column:total_cholesterol;type:numeric(10,3)"`
	HDL                 decimal.NullDecimal `json:"hdl" gorm:"column:hdl;type:numeric(10,3)"`
	LDL                 decimal.NullDecimal `json:"ldl" gorm:"column:ldl;type:numeric(10,3)"`
	Triglycerides       decimal.NullDecimal `json:"trigliceridos" gorm:"column:triglycerides;type:numeric(10,3)"`
	TSH                 decimal.NullDecimal `json:"tsh" gorm:"column:tsh;type:numeric(10,3)"`
	FreeT4              decimal.NullDecimal `json:"t4Libre" gorm:"column:free_t4;type:numeric(10,3)"`
	AST                 decimal.NullDecimal `json:"got" gorm:"column:ast;type:numeric(10,3)"`
	ALT                 decimal.NullDecimal `json:"gpt" gorm:"column:alt;type:numeric(10,3)"`
	AlkalinePhosphatase decimal.NullDecimal `json:"fosfatasaAlcalina" gorm:"column:alkaline_phosphatase;type:numeric(10,3)"`
	Sodium              decimal.NullDecimal `json:"sodio" gorm:"column:sodium;type:numeric(10,3)"`
	Potassium           decimal.NullDecimal `json:"potasio" gorm:"column:potassium;type:numeric(10,3)"`
	Calcium             decimal.NullDecimal `json:"calcio" gorm:"column:calcium;type:numeric(10,3)"`
	VitaminD            decimal.NullDecimal `json:"vitaminaD" gorm:"column:vitamin_d;type:numeric(10,3)"`
	VitaminB12          decimal.NullDecimal `json:"vitaminaB12" gorm:"column:vitamin_b12;type:numeric(10,3)"`
	Ferritin            decimal.NullDecimal `json:"ferritina" gorm:"column:ferritin;type:numeric(10,3)"`
	HbA1c               decimal.NullDecimal `json:"hemoglobinaGlicosilada" gorm:"column:hba1c;type:numeric(10,3)"`
	CRP                 decimal.NullDecimal `json:"pcr" gorm:"column:crp;type:numeric(10,3)"`
	ESR                 decimal.NullDecimal `json:"eritrosedimentacion" gorm:"column:esr;type:numeric(10,3)"`
}

// Measured returns the JSON names of the analytes that carry a value.
func (p LabPanel) Measured() []string {
	out := []string{}
	for _, f := range p.fields() {
		if f.value.Valid {
			out = append(out, f.name)
		}
	}
	return out
}

type labField struct {
	name  string
	value decimal.NullDecimal
}

func (p LabPanel) fields() []labField {
	return []labField{
		{"hemoglobina", p.Hemoglobin},
		{"hematocrito", p.Hematocrit},
		{"globulosBlancos", p.WhiteCells},
		{"plaquetas", p.Platelets},
		{"glucemia", p.Glucose},
		{"urea", p.Urea},
		{"creatinina", p.Creatinine},
		{"acidoUrico", p.UricAcid},
		{"colesterolTotal", p.TotalCholesterol},
		{"hdl", p.HDL},
		{"ldl", p.LDL},
		{"trigliceridos", p.Triglycerides},
		{"tsh", p.TSH},
		{"t4Libre", p.FreeT4},
		{"got", p.AST},
		{"gpt", p.ALT},
		{"fosfatasaAlcalina", p.AlkalinePhosphatase},
		{"sodio", p.Sodium},
		{"potasio", p.Potassium},
		{"calcio", p.Calcium},
		{"vitaminaD", p.VitaminD},
		{"vitaminaB12", p.VitaminB12},
		{"ferritina", p.Ferritin},
		{"hemoglobinaGlicosilada", p.HbA1c},
		{"pcr", p.CRP},
		{"eritrosedimentacion", p.ESR},
	}
}

// ExtraLabValue is an analyte outside the standard panel ("no incluido").
type ExtraLabValue struct {
	Name  string `json:"nombre" validate:"required"`
	Value string `json:"valor" validate:"required"`
	Unit  string `json:"unidad,omitempty"`
}

// Attachment references a file stored outside the database.
type Attachment struct {
	Name string `json:"nombre" validate:"required"`
	URL  string `json:"url" validate:"required"`
	Kind string `json:"tipo,omitempty"`
}
