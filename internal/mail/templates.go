package mail

import (
	"fmt"
	"html"
	"strings"
)

// Template names.
const (
	Welcome               = "welcome"
	PasswordOTP           = "password_otp"
	PasswordChanged       = "password_changed"
	SubscriptionActivated = "subscription_activated"
	SubscriptionCancelled = "subscription_cancelled"
)

type template struct {
	subject string
	body    string
}

var templates = map[string]template{
	Welcome: {
		subject: "Welcome to {{app_name}}, {{name}}!",
		body: `<h2>Hi {{name}},</h2>
<p>Your {{app_name}} account is ready. Finish setting up your profile to unlock your dashboard.</p>
<p><a href="{{dashboard_url}}">Continue setup</a></p>`,
	},
	PasswordOTP: {
		subject: "Your {{app_name}} password reset code",
		body: `<p>Hi {{name}},</p>
<p>Use the code below to reset your password. It expires in {{minutes}} minutes.</p>
<h1 style="letter-spacing:4px">{{code}}</h1>
<p>If you did not request this, you can ignore this email.</p>`,
	},
	PasswordChanged: {
		subject: "Your {{app_name}} password was changed",
		body: `<p>Hi {{name}},</p>
<p>The password for your account was just changed. If this was not you, reset it immediately.</p>`,
	},
	SubscriptionActivated: {
		subject: "Your {{plan}} subscription is active",
		body: `<p>Hi {{name}},</p>
<p>Thanks for subscribing to the <b>{{plan}}</b> plan. Your subscription is valid until {{end_date}}.</p>
<p>Payment reference: {{payment_ref}}</p>`,
	},
	SubscriptionCancelled: {
		subject: "Your {{app_name}} subscription was cancelled",
		body: `<p>Hi {{name}},</p>
<p>Your <b>{{plan}}</b> subscription has been cancelled. Your listing will no longer be visible to customers.</p>`,
	},
}

// AppName fills {{app_name}} when the caller does not set it.
var AppName = "AutoHub"

// Render fills the named template. Placeholders without a value are left as-is.
// Values are HTML-escaped in the body; the subject gets them as plain text on a
// single line.
func Render(name, to string, vars map[string]string) (Message, error) {
	t, ok := templates[name]
	if !ok {
		return Message{}, fmt.Errorf("unknown mail template %q", name)
	}

	subjectPairs := []string{"{{app_name}}", AppName}
	bodyPairs := []string{"{{app_name}}", html.EscapeString(AppName)}
	for k, v := range vars {
		subjectPairs = append(subjectPairs, "{{"+k+"}}", headerSafe.Replace(v))
		bodyPairs = append(bodyPairs, "{{"+k+"}}", html.EscapeString(v))
	}

	return Message{
		To:       to,
		Template: name,
		Subject:  strings.NewReplacer(subjectPairs...).Replace(t.subject),
		HTML:     strings.NewReplacer(bodyPairs...).Replace(t.body),
	}, nil
}

var headerSafe = strings.NewReplacer("\r", " ", "\n", " ")
