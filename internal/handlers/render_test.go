package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kerhoff/shoplistbot/internal/models"
	"github.com/Kerhoff/shoplistbot/internal/state"
)

func renderedGroup() models.Group {
	return models.Group{
		ID:   "g1",
		Name: "Home",
		Items: []models.Item{
			{ID: "i1", Title: "Milk"},
			{ID: "i2", Title: "Eggs", IsBought: true},
		},
		Members: []models.Member{
			{ID: "u1", Username: "ali1", Name: "Alice"},
			{ID: "u2", Username: "bob", Name: "Bob"},
			{ID: "u3", Username: "carol", Name: "Carol"},
		},
		Owner:      models.Member{ID: "u1", Username: "ali1", Name: "Alice"},
		Membership: models.MembershipJoined,
	}
}

func TestRenderGroupsAffordancesFollowMembership(t *testing.T) {
	out := renderGroups([]models.Group{
		{ID: "g1", Name: "Home", Membership: models.MembershipJoined},
		{ID: "g2", Name: "Book Club", Membership: models.MembershipFound},
	})

	assert.Contains(t, out, "1. 👥 Home")
	assert.Contains(t, out, "2. 🔍 Book Club — not joined")
	assert.Contains(t, out, "/open <number>")
	assert.Contains(t, out, "/join <number> <password>")
}

func TestRenderGroupsJoinedOnlyOmitsJoinHint(t *testing.T) {
	out := renderGroups([]models.Group{
		{ID: "g1", Name: "Home", Membership: models.MembershipJoined},
	})
	assert.NotContains(t, out, "/join")
}

func TestRenderGroupsEmpty(t *testing.T) {
	out := renderGroups(nil)
	assert.Contains(t, out, "No groups here yet")
}

func TestRenderDetailOwnerSeesDeleteNeverLeave(t *testing.T) {
	out := renderDetail(renderedGroup(), "u1")
	assert.Contains(t, out, "/delgroup")
	assert.NotContains(t, out, "/leave")
}

func TestRenderDetailMemberSeesLeaveNeverDelete(t *testing.T) {
	out := renderDetail(renderedGroup(), "u2")
	assert.Contains(t, out, "/leave")
	assert.NotContains(t, out, "/delgroup")
}

func TestRenderDetailItemsAndCounts(t *testing.T) {
	out := renderDetail(renderedGroup(), "u2")
	assert.Contains(t, out, "1. ⬜ Milk")
	assert.Contains(t, out, "2. ✅ ~Eggs~")
	assert.Contains(t, out, "1 remaining, 1 bought")
}

func TestRenderDetailMarksOwnerAndSelf(t *testing.T) {
	out := renderDetail(renderedGroup(), "u2")
	assert.Contains(t, out, "👑")
	assert.Contains(t, out, "(you)")
}

func TestDetailKeyboardButtonsPerItem(t *testing.T) {
	markup := detailKeyboard(renderedGroup(), "u1")

	var data []string
	for _, row := range markup.InlineKeyboard {
		for _, btn := range row {
			require.NotNil(t, btn.CallbackData)
			data = append(data, *btn.CallbackData)
		}
	}

	assert.Contains(t, data, "item:t:i1")
	assert.Contains(t, data, "item:d:i1")
	assert.Contains(t, data, "item:t:i2")
	assert.Contains(t, data, "item:d:i2")
}

func TestDetailKeyboardNeverOffersSelfKick(t *testing.T) {
	markup := detailKeyboard(renderedGroup(), "u2")

	var data []string
	for _, row := range markup.InlineKeyboard {
		for _, btn := range row {
			data = append(data, *btn.CallbackData)
		}
	}

	assert.NotContains(t, data, "member:k:u2")
	assert.Contains(t, data, "member:k:u1")
	assert.Contains(t, data, "member:k:u3")
}

func TestRenderUsers(t *testing.T) {
	out := renderUsers([]models.Member{
		{ID: "u9", Username: "carol", Name: "Carol"},
	})
	assert.Contains(t, out, "1.")
	assert.Contains(t, out, "/invite <number>")

	assert.Contains(t, renderUsers(nil), "No users found")
}

func TestParseIndex(t *testing.T) {
	tests := []struct {
		name    string
		arg     string
		length  int
		want    int
		wantErr bool
	}{
		{"first", "1", 3, 0, false},
		{"last", "3", 3, 2, false},
		{"zero", "0", 3, 0, true},
		{"past_end", "4", 3, 0, true},
		{"negative", "-1", 3, 0, true},
		{"not_a_number", "abc", 3, 0, true},
		{"empty_list", "1", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseIndex(tt.arg, tt.length)
			if tt.wantErr {
				assert.ErrorIs(t, err, state.ErrUnknownEntry)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
