//go:generate go run github.com/abice/go-enum --file=$GOFILE --names --nocase

package domain

// Mode selects how a digest is summarized before delivery
// ENUM(plain,ai_individual,ai_combined)
type Mode string
