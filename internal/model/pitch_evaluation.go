package model

import "time"

// PitchEvaluation 对应于数据库中的 'pitch_evaluations' 表，写入后不可变。
type PitchEvaluation struct {
	ID         string    `gorm:"type:char(36);primaryKey" json:"id"`
	UserID     string    `gorm:"type:char(36);index;not null" json:"userId"`
	PersonaID  string    `gorm:"type:char(36);not null" json:"personaId"`
	PitchText  string    `gorm:"type:text;not null" json:"pitchText"`
	Evaluation string    `gorm:"type:text;not null" json:"evaluation"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

func (PitchEvaluation) TableName() string {
	return "pitch_evaluations"
}

// PitchEvaluationView 是返回给客户端的评估视图，附带画像展示字段。
type PitchEvaluationView struct {
	PitchEvaluation
	Persona *PersonaBasic `json:"persona"`
}
