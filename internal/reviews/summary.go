package reviews

import (
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/snaapconnections/storefront/pkg/storefrontapi"
)

const (
	topCommentMinRating = 4
	topCommentCount     = 3
	topCommentMaxRunes  = 120
)

// Summary is the rating overview shown above a product's reviews.
type Summary struct {
	Count        int             `json:"count"`
	Average      decimal.Decimal `json:"average"`
	Distribution map[int]int     `json:"distribution"`
}

// Stars rounds a rating half up to a whole star.
func Stars(rating float64) int {
	return int(math.Floor(rating + 0.5))
}

func Summarize(reviews []storefrontapi.Review) Summary {
	s := Summary{
		Average:      decimal.Zero,
		Distribution: map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0},
	}
	if len(reviews) == 0 {
		return s
	}
	sum := decimal.Zero
	for _, r := range reviews {
		sum = sum.Add(decimal.NewFromFloat(r.Rating))
		if star := Stars(r.Rating); star >= 1 && star <= 5 {
			s.Distribution[star]++
		}
	}
	s.Count = len(reviews)
	s.Average = sum.Div(decimal.NewFromInt(int64(len(reviews)))).Round(2)
	return s
}

// SortOrder orders reviews by creation time.
type SortOrder string

const (
	SortNewest SortOrder = "newest"
	SortOldest SortOrder = "oldest"
)

// Arrange filters by star (0 keeps all) and sorts. The input is not modified.
func Arrange(reviews []storefrontapi.Review, stars int, order SortOrder) []storefrontapi.Review {
	out := make([]storefrontapi.Review, 0, len(reviews))
	for _, r := range reviews {
		if stars == 0 || Stars(r.Rating) == stars {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if order == SortOldest {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// TopComment is a short excerpt of a well-rated review.
type TopComment struct {
	Name    string `json:"name"`
	Comment string `json:"comment"`
}

// TopComments picks the first few reviews rated four stars or more.
func TopComments(reviews []storefrontapi.Review) []TopComment {
	out := []TopComment{}
	for _, r := range reviews {
		if r.Rating < topCommentMinRating {
			continue
		}
		out = append(out, TopComment{Name: r.Name, Comment: excerpt(r.Comment)})
		if len(out) == topCommentCount {
			break
		}
	}
	return out
}

func excerpt(s string) string {
	if utf8.RuneCountInString(s) <= topCommentMaxRunes {
		return s
	}
	var b strings.Builder
	n := 0
	for _, r := range s {
		if n == topCommentMaxRunes {
			break
		}
		b.WriteRune(r)
		n++
	}
	return b.String() + "..."
}
