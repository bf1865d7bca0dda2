package core

import (
	"net/mail"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type leadData struct {
	FullName, Email, Phone, StudentAge, CurrentLevel, PreferredCourse, Notes string
}

func TestEmailMessage_Render(t *testing.T) {
	tests := []struct {
		name     string
		msg      EmailMessage
		wantErr  bool
		wantText []string
		wantHTML []string
	}{
		{
			name: "template",
			msg: EmailMessage{
				To:           []mail.Address{{Address: "office@eduquest.com"}},
				TemplateName: "registration_lead",
				TemplateData: leadData{FullName: "Jane <Doe>", Email: "jane@example.com", Notes: "evenings"},
			},
			wantText: []string{"Full name: Jane <Doe>", "Notes: evenings", "EduQuest Academy"},
			wantHTML: []string{"Jane &lt;Doe&gt;"},
		},
		{
			name:     "plain body",
			msg:      EmailMessage{BodyStr: "hello"},
			wantText: []string{"hello"},
		},
		{
			name:    "unknown template",
			msg:     EmailMessage{TemplateName: "nope"},
			wantErr: true,
		},
		{
			name:    "empty",
			msg:     EmailMessage{},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.msg
			err := msg.Render()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			for _, want := range tt.wantText {
				assert.Contains(t, msg.TextContent, want)
			}
			for _, want := range tt.wantHTML {
				assert.Contains(t, msg.HTMLContent, want)
			}
		})
	}
}

func TestEmailMessage_Recipients(t *testing.T) {
	msg := EmailMessage{To: []mail.Address{{Name: "Office", Address: "office@eduquest.com"}, {Address: "a@b.c"}}}
	assert.True(t, msg.HasRecipients())
	assert.Equal(t, []string{"office@eduquest.com", "a@b.c"}, msg.Recipients())
	assert.False(t, (&EmailMessage{}).HasRecipients())
}
