package store

// Resource names of the product hierarchy.
const (
	Styles   = "styles"
	Variants = "variants"
	BOMItems = "bom_items"
)

// Attribute names the store interprets beyond "id".
const (
	StyleIDAttr     = "style_id"
	VariantIDAttr   = "variant_id"
	ColorNameAttr   = "color_name"
	SpecDetailsAttr = "specDetails"
)

// Entity is implemented by typed models that know their collection.
type Entity interface {
	// Resource returns the collection name (e.g., "variants").
	Resource() string
}

// Style is the top of the hierarchy.
type Style struct {
	ID        int64  `dynamodbav:"id" json:"id"`
	StyleNo   string `dynamodbav:"style_no" json:"style_no"`
	StyleName string `dynamodbav:"style_name" json:"style_name"`
	Season    string `dynamodbav:"season,omitempty" json:"season,omitempty"`
	Category  string `dynamodbav:"category,omitempty" json:"category,omitempty"`
	ImageURL  string `dynamodbav:"image_url,omitempty" json:"image_url,omitempty"`
}

func (Style) Resource() string { return Styles }

// Variant is a color variant of a style.
type Variant struct {
	ID        int64  `dynamodbav:"id" json:"id"`
	StyleID   int64  `dynamodbav:"style_id" json:"style_id"`
	ColorName string `dynamodbav:"color_name" json:"color_name"`
	ColorCode string `dynamodbav:"color_code,omitempty" json:"color_code,omitempty"`
	ImageURL  string `dynamodbav:"image_url,omitempty" json:"image_url,omitempty"`
	SizeRange string `dynamodbav:"size_range,omitempty" json:"size_range,omitempty"`
}

func (Variant) Resource() string { return Variants }

// BOMItem is a bill-of-material line of a variant. It owns its spec lines.
type BOMItem struct {
	ID           int64      `dynamodbav:"id" json:"id"`
	VariantID    int64      `dynamodbav:"variant_id" json:"variant_id"`
	MaterialName string     `dynamodbav:"material_name" json:"material_name"`
	MaterialCode string     `dynamodbav:"material_code,omitempty" json:"material_code,omitempty"`
	Usage        float64    `dynamodbav:"usage,omitempty" json:"usage,omitempty"`
	Unit         string     `dynamodbav:"unit,omitempty" json:"unit,omitempty"`
	Supplier     string     `dynamodbav:"supplier,omitempty" json:"supplier,omitempty"`
	SpecDetails  []SpecLine `dynamodbav:"specDetails" json:"specDetails"`
}

func (BOMItem) Resource() string { return BOMItems }

// SpecLine is one size/value/unit triple inside a BOMItem.
type SpecLine struct {
	ID        int64  `dynamodbav:"id" json:"id"`
	Size      string `dynamodbav:"size" json:"size"`
	SpecValue string `dynamodbav:"spec_value" json:"spec_value"`
	SpecUnit  string `dynamodbav:"spec_unit" json:"spec_unit"`
}
