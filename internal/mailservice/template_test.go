package mailservice

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRender(t *testing.T) {
	templates, err := NewTemplates()
	if !assert.NoError(t, err) {
		return
	}

	testCases := []struct {
		name         string
		templateName string
		data         any
		expectedErr  bool
	}{
		{
			name:         "success",
			templateName: confirmationTemplate,
			data: confirmationData{
				Username:         "testuser",
				ConfirmationLink: "http://localhost:8080/confirm-registration/testuser/TOKEN",
			},
			expectedErr: false,
		},
		{
			name:         "escapes username",
			templateName: confirmationTemplate,
			data: confirmationData{
				Username:         "<b>bob</b>",
				ConfirmationLink: "http://localhost:8080/confirm-registration/bob/TOKEN",
			},
			expectedErr: false,
		},
		{
			name:         "invalid template name",
			templateName: "invalid_template.html",
			data:         nil,
			expectedErr:  true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			e, err := templates.Render(tc.templateName, tc.data)
			assert.Equal(t, tc.expectedErr, err != nil)

			if err != nil {
				return
			}

			data := tc.data.(confirmationData)
			assert.Equal(t, "Verify your email address", e.Subject)
			assert.Contains(t, e.PlainBody, data.ConfirmationLink)
			assert.Contains(t, e.HTMLBody, `href="`+data.ConfirmationLink+`"`)
			assert.NotContains(t, e.HTMLBody, "<b>bob</b>")
		})
	}
}
