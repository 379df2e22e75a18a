package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// StringList 将字符串切片以 JSON 形式存入数据库列。
type StringList []string

// Value 实现 driver.Valuer 接口。
func (s StringList) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	b, err := json.Marshal(s)
	return string(b), err
}

// Scan 实现 sql.Scanner 接口。
func (s *StringList) Scan(value interface{}) error {
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	case nil:
		*s = nil
		return nil
	}
	return errors.New("unsupported type for StringList")
}

// Persona 对应于数据库中的 'personas' 表。
// 对核心业务来说是只读参考数据：PromptTemplate 决定模型的说话方式。
type Persona struct {
	ID             string     `gorm:"type:char(36);primaryKey" json:"id"`
	Name           string     `gorm:"type:varchar(100);not null" json:"name"`
	AvatarURL      string     `gorm:"type:varchar(512)" json:"avatarUrl"`
	PromptTemplate string     `gorm:"type:text;not null" json:"promptTemplate"`
	Description    string     `gorm:"type:text" json:"description"`
	Expertise      StringList `gorm:"type:json" json:"expertise"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"createdAt"`
}

func (Persona) TableName() string {
	return "personas"
}

// PersonaBasic 是列表视图使用的精简画像，不携带 PromptTemplate。
type PersonaBasic struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	AvatarURL   string     `json:"avatarUrl"`
	Description string     `json:"description"`
	Expertise   StringList `json:"expertise"`
}

// Basic 返回画像的精简视图。
func (p *Persona) Basic() PersonaBasic {
	return PersonaBasic{
		ID:          p.ID,
		Name:        p.Name,
		AvatarURL:   p.AvatarURL,
		Description: p.Description,
		Expertise:   p.Expertise,
	}
}
