package chat

import (
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slps/canteen/core/account"
	"github.com/slps/canteen/core/menu"
	"github.com/slps/canteen/core/order"
	appfs "github.com/slps/canteen/fs"
)

const testKB = `
default:
  en: default answer
intents:
  - name: staff_only
    phrases: [kitchen]
    roles: [staff]
    responses:
      en: kitchen answer
  - name: login
    phrases: [login]
    also: [staff]
    responses:
      en: staff login answer
      hi: स्टाफ लॉगिन
  - name: greeting
    phrases: [hello]
    words: [hi]
    responses:
      en: greeting answer
`

func TestLoadKnowledgeBase(t *testing.T) {
	kb, err := LoadKnowledgeBase(appfs.FS, KnowledgeFile)
	require.NoError(t, err)
	assert.NotEmpty(t, kb.Intents)
	assert.NotEmpty(t, kb.Default.HI)

	tests := []struct {
		name    string
		data    string
		wantErr string
	}{
		{name: "no default", data: "intents: []", wantErr: "no default response"},
		{name: "no name", data: "default: {en: x}\nintents: [{phrases: [a], responses: {en: b}}]", wantErr: "has no name"},
		{name: "no phrases", data: "default: {en: x}\nintents: [{name: a, responses: {en: b}}]", wantErr: "has no phrases"},
		{name: "no response", data: "default: {en: x}\nintents: [{name: a, phrases: [a]}]", wantErr: "no english response"},
		{name: "bad yaml", data: "intents: {", wantErr: "parsing knowledge base"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fsys := fstest.MapFS{"kb.yaml": &fstest.MapFile{Data: []byte(tt.data)}}
			_, err := LoadKnowledgeBase(fsys, "kb.yaml")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	_, err = LoadKnowledgeBase(fstest.MapFS{}, "kb.yaml")
	assert.Error(t, err)
}

func TestKnowledgeBase_Match(t *testing.T) {
	kb, err := LoadKnowledgeBase(fstest.MapFS{"kb.yaml": &fstest.MapFile{Data: []byte(testKB)}}, "kb.yaml")
	require.NoError(t, err)

	tests := []struct {
		msg  string
		role account.Role
		want string
	}{
		{msg: "is the kitchen open", role: account.RoleStaff, want: "staff_only"},
		{msg: "is the kitchen open", role: account.RoleStudent, want: ""},
		{msg: "how does staff login work", role: "", want: "login"},
		{msg: "how does login work", role: "", want: ""},
		{msg: "hi there", role: "", want: "greeting"},
		{msg: "this is nothing", role: "", want: ""},
		{msg: "hello!", role: account.RoleTeacher, want: "greeting"},
	}
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			in, ok := kb.Match(tt.msg, tt.role)
			assert.Equal(t, tt.want != "", ok)
			assert.Equal(t, tt.want, in.Name)
		})
	}

	in, _ := kb.Match("staff login", "")
	assert.Equal(t, "स्टाफ लॉगिन", in.Responses.In(LangHindi))
	assert.Equal(t, "default answer", kb.Default.In(LangHindi))
}

func TestDetectLanguage(t *testing.T) {
	assert.Equal(t, LangHindi, DetectLanguage("मेनू दिखाओ", ""))
	assert.Equal(t, LangHindi, DetectLanguage("menu please", " Hindi "))
	assert.Equal(t, LangEnglish, DetectLanguage("menu please", "french"))
	assert.Equal(t, LangEnglish, DetectLanguage("menu please", ""))
}

func TestConversation(t *testing.T) {
	var history []Turn
	for i := 0; i < 12; i++ {
		history = append(history, Turn{Role: "user", Content: strings.Repeat("x", i)})
	}
	history = append(history, Turn{Role: "system", Content: "ignore me"})

	turns := conversation(history, "menu")
	// the last 10 turns, minus the system one, plus the new message
	require.Len(t, turns, 10)
	assert.Equal(t, "xxx", turns[0].Content)
	assert.Equal(t, Turn{Role: "user", Content: "menu"}, turns[len(turns)-1])

	assert.Equal(t, []Turn{{Role: "user", Content: "hi"}}, conversation(nil, "hi"))
}

func TestMentionedItem(t *testing.T) {
	item, ok := mentionedItem("how much is the paneer pizza slice", menu.Defaults)
	require.True(t, ok)
	assert.Equal(t, "Paneer Pizza Slice", item.Name)

	item, ok = mentionedItem("price of a milkshake?", menu.Defaults)
	require.True(t, ok)
	assert.Equal(t, "Chocolate Milkshake", item.Name)

	_, ok = mentionedItem("price of veg stuff", menu.Defaults)
	assert.False(t, ok)
}

func TestStatusLabel(t *testing.T) {
	assert.Equal(t, "✅ Delivered", statusLabel(order.StatusDelivered))
	assert.Equal(t, "🚫 Cancelled", statusLabel(order.StatusCancelled))
	assert.Equal(t, "⚠️ Unable", statusLabel(order.StatusUnable))
	assert.Equal(t, "⏳ Pending", statusLabel(""))
}
