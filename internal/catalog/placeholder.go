package catalog

import "bento-order/internal/models"

// Placeholder returns the built-in catalog used when the source has nothing to offer
func Placeholder() []models.MenuItem {
	return []models.MenuItem{
		{
			ID:          "placeholder-karaage",
			Name:        "唐揚げ弁当",
			Description: "定番の唐揚げ弁当",
			Prices: map[models.OptionKey]int64{
				models.OptionRegular:  500,
				models.OptionLarge:    600,
				models.OptionSideOnly: 400,
			},
		},
		{
			ID:          "placeholder-nori",
			Name:        "のり弁当",
			Description: "白身フライとちくわ天ののり弁",
			Prices: map[models.OptionKey]int64{
				models.OptionRegular: 450,
				models.OptionLarge:   550,
			},
		},
		{
			ID:          "placeholder-saba",
			Name:        "鯖の塩焼き弁当",
			Description: "",
			Prices: map[models.OptionKey]int64{
				models.OptionRegular: 650,
				models.OptionSmall:   550,
			},
		},
	}
}
