package models

// JSON is a loosely typed settings payload.
type JSON map[string]interface{}

// Setting is a key/value configuration row.
type Setting struct {
	Key       string `gorm:"primarykey" json:"key"`
	ValueJSON JSON   `gorm:"type:json;serializer:json" json:"value"`
}

// TableName sets the table name.
func (Setting) TableName() string {
	return "settings"
}
