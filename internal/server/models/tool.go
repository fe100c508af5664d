package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Tool struct {
	bun.BaseModel `bun:"table:tools,alias:t"`

	ID          string    `bun:"id,pk" json:"id"`
	Name        string    `bun:"name,notnull,unique" json:"name"`
	Description string    `bun:"description,notnull" json:"description"`
	Website     string    `bun:"website,notnull" json:"website"`
	CreatedAt   time.Time `bun:"created_at,notnull" json:"createdAt"`
	UpdatedAt   time.Time `bun:"updated_at,notnull" json:"updatedAt"`
}
