package segment

import (
	"testing"

	"github.com/poiesic/lexrag/core"
	"github.com/stretchr/testify/assert"
)

func TestDetermineType(t *testing.T) {
	tests := []struct {
		name string
		text string
		want core.ContentType
	}{
		{"definition", `"unit" means a part of the property`, core.ContentTypeDefinition},
		{"definition beats obligation", `"owner" means a person who shall pay`, core.ContentTypeDefinition},
		{"requirement", "The board shall keep records.", core.ContentTypeRequirement},
		{"must", "Owners must comply.", core.ContentTypeRequirement},
		{"procedure", "The owner may apply to the court.", core.ContentTypeProcedure},
		{"penalty", "Every person who contravenes is guilty of an offence.", core.ContentTypePenalty},
		{"amendment", "Repealed. [Amendment: 2015]", core.ContentTypeAmendment},
		{"note", "Note: see the regulations.", core.ContentTypeNote},
		{"default", "Transitional provisions apply.", core.ContentTypeRequirement},
		{"case sensitive", "SHALL", core.ContentTypeRequirement},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetermineType(tt.text))
		})
	}
}

func TestExtractTopics(t *testing.T) {
	t.Run("frequency order", func(t *testing.T) {
		text := "budget reserve budget fund reserve budget"
		assert.Equal(t, []string{"budget", "reserve", "fund"}, ExtractTopics(text))
	})

	t.Run("ties keep first appearance", func(t *testing.T) {
		text := "zebra apple mango apple zebra mango"
		assert.Equal(t, []string{"zebra", "apple", "mango"}, ExtractTopics(text))
	})

	t.Run("at most five", func(t *testing.T) {
		text := "alpha bravo charlie delta echos foxtrot golfs"
		assert.Len(t, ExtractTopics(text), 5)
	})

	t.Run("short words and stop words dropped", func(t *testing.T) {
		text := "The board with this unit that owns from them"
		assert.Equal(t, []string{"board", "unit", "owns"}, ExtractTopics(text))
	})

	t.Run("punctuation stripped", func(t *testing.T) {
		assert.Equal(t, []string{"owners", "meeting"}, ExtractTopics("Owners' meeting, (owners)."))
	})

	t.Run("empty", func(t *testing.T) {
		assert.Empty(t, ExtractTopics(""))
	})
}
