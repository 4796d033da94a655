package mailservice

import (
	"bytes"
	"errors"
	"testing"

	"github.com/go-mail/mail/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestSendEmail(t *testing.T) {
	data := activationData{Username: "alice", ActivationToken: "TOKEN"}

	testCases := []struct {
		name      string
		parseErr  error
		dialErr   error
		wantDial  bool
		wantError error
	}{
		{name: "sent", wantDial: true},
		{name: "template error", parseErr: errors.New("bad template"), wantError: errors.New("bad template")},
		{name: "smtp error", dialErr: errors.New("smtp down"), wantDial: true, wantError: errors.New("smtp down")},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mockParser := new(MockTemplate)
			mockDialer := new(MockDialer)

			mailer := Mail{
				dialer: mockDialer,
				parser: mockParser,
				sender: "sender@example.com",
			}

			mockParser.On("ParseTemplate", "template.html", data).Return(
				bytes.NewBufferString("Test Subject"),
				bytes.NewBufferString("Test Plain Body"),
				bytes.NewBufferString("Test HTML Body"),
				tc.parseErr)

			var sent *mail.Message
			mockDialer.On("DialAndSend", mock.AnythingOfType("[]*mail.Message")).
				Run(func(args mock.Arguments) { sent = args.Get(0).([]*mail.Message)[0] }).
				Return(tc.dialErr)

			err := mailer.send("alice@example.com", data, "template.html")
			assert.Equal(t, tc.wantError, err)

			if tc.wantDial {
				mockDialer.AssertNumberOfCalls(t, "DialAndSend", 1)
				assert.Equal(t, []string{"alice@example.com"}, sent.GetHeader("To"))
				assert.Equal(t, []string{"sender@example.com"}, sent.GetHeader("From"))
				assert.Equal(t, []string{"Test Subject"}, sent.GetHeader("Subject"))
			} else {
				mockDialer.AssertNotCalled(t, "DialAndSend", mock.Anything)
			}
			mockParser.AssertExpectations(t)
		})
	}
}
