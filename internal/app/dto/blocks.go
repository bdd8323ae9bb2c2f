package dto

import (
	"time"

	"staycal/internal/domain/blocks"
	"staycal/internal/domain/shared/daterange"
)

type Block struct {
	ID        string    `json:"id"`
	StartDate string    `json:"start_date"`
	EndDate   string    `json:"end_date"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}

type BlockCollection struct {
	Items []Block `json:"items"`
}

func MapBlock(b *blocks.Block) Block {
	return Block{
		ID:        string(b.ID),
		StartDate: daterange.FormatDay(b.Range.Start),
		EndDate:   daterange.FormatDay(b.Range.End),
		Reason:    b.Reason,
		CreatedAt: b.CreatedAt,
	}
}

func MapBlocks(list []*blocks.Block) BlockCollection {
	items := make([]Block, 0, len(list))
	for _, b := range list {
		items = append(items, MapBlock(b))
	}
	return BlockCollection{Items: items}
}

type CleanupResult struct {
	Action string `json:"action"`
	Source string `json:"source,omitempty"`
	Count  int    `json:"count"`
}
