package templates

// defaultTemplate returns the built-in template for the given ID, or the
// generic catch-all when the ID has no built-in copy.
func defaultTemplate(id string) *Template {
	if tpl, ok := builtinTemplates[id]; ok {
		return tpl
	}
	return &Template{
		ID:           id,
		Name:         "Default Template",
		Subject:      "Notification from {{platform_name}}",
		HTMLTemplate: "<p>You have a new notification from {{platform_name}}.</p>",
		TextTemplate: "You have a new notification from {{platform_name}}.",
	}
}

var builtinTemplates = map[string]*Template{
	BookingConfirmation: {
		ID:      BookingConfirmation,
		Name:    "Booking Confirmation",
		Subject: "Your booking with {{consultant_name}} is confirmed!",
		HTMLTemplate: `<!DOCTYPE html>
<html>
<head>
  <style>
    body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
    .container { max-width: 600px; margin: 0 auto; padding: 20px; }
    .header { background: #4F46E5; color: white; padding: 20px; text-align: center; }
    .content { background: white; padding: 20px; border: 1px solid #ddd; }
    .button { display: inline-block; padding: 12px 24px; background: #4F46E5; color: white; text-decoration: none; border-radius: 5px; }
    .footer { text-align: center; padding: 20px; color: #666; font-size: 12px; }
  </style>
</head>
<body>
  <div class="container">
    <div class="header">
      <h1>Booking Confirmed!</h1>
    </div>
    <div class="content">
      <p>Hi {{student_name}},</p>
      <p>Great news! Your booking with <strong>{{consultant_name}}</strong> has been confirmed.</p>
      <h3>Booking Details:</h3>
      <ul>
        <li><strong>Service:</strong> {{service_title}}</li>
        <li><strong>Price:</strong> ${{price}}</li>
        <li><strong>Expected Delivery:</strong> {{delivery_date}}</li>
      </ul>
      <p>Your consultant will begin working on your request shortly. You'll receive another notification when the service is completed.</p>
      <p style="text-align: center; margin: 30px 0;">
        <a href="{{platform_url}}/bookings/{{booking_id}}" class="button">View Booking</a>
      </p>
    </div>
    <div class="footer">
      <p>&copy; {{current_year}} {{platform_name}}. All rights reserved.</p>
      <p><a href="{{platform_url}}/settings/notifications">Manage Email Preferences</a></p>
    </div>
  </div>
</body>
</html>`,
		TextTemplate: `Booking Confirmed!

Hi {{student_name}},

Great news! Your booking with {{consultant_name}} has been confirmed.

Booking Details:
- Service: {{service_title}}
- Price: ${{price}}
- Expected Delivery: {{delivery_date}}

Your consultant will begin working on your request shortly. You'll receive another notification when the service is completed.

View your booking: {{platform_url}}/bookings/{{booking_id}}

(c) {{current_year}} {{platform_name}}. All rights reserved.
Manage Email Preferences: {{platform_url}}/settings/notifications`,
		RequiredVariables: []string{"student_name", "consultant_name", "service_title", "price", "delivery_date", "booking_id"},
	},

	NewBookingRequest: {
		ID:      NewBookingRequest,
		Name:    "New Booking Request",
		Subject: "New booking from {{student_name}}!",
		HTMLTemplate: `<!DOCTYPE html>
<html>
<head>
  <style>
    body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
    .container { max-width: 600px; margin: 0 auto; padding: 20px; }
    .header { background: #10B981; color: white; padding: 20px; text-align: center; }
    .content { background: white; padding: 20px; border: 1px solid #ddd; }
    .button { display: inline-block; padding: 12px 24px; background: #10B981; color: white; text-decoration: none; border-radius: 5px; }
    .footer { text-align: center; padding: 20px; color: #666; font-size: 12px; }
  </style>
</head>
<body>
  <div class="container">
    <div class="header">
      <h1>New Booking Request!</h1>
    </div>
    <div class="content">
      <p>Hi {{consultant_name}},</p>
      <p>You have a new booking request from <strong>{{student_name}}</strong>!</p>
      <h3>Booking Details:</h3>
      <ul>
        <li><strong>Service:</strong> {{service_title}}</li>
        <li><strong>Price:</strong> ${{price}}</li>
        <li><strong>Your Earnings:</strong> ${{earnings}} (after 20% platform fee)</li>
        <li><strong>Delivery Required By:</strong> {{delivery_date}}</li>
      </ul>
      <p style="text-align: center; margin: 30px 0;">
        <a href="{{platform_url}}/consultant-dashboard" class="button">View in Dashboard</a>
      </p>
    </div>
    <div class="footer">
      <p>&copy; {{current_year}} {{platform_name}}. All rights reserved.</p>
      <p><a href="{{platform_url}}/settings/notifications">Manage Email Preferences</a></p>
    </div>
  </div>
</body>
</html>`,
		TextTemplate: `New Booking Request!

Hi {{consultant_name}},

You have a new booking request from {{student_name}}!

Booking Details:
- Service: {{service_title}}
- Price: ${{price}}
- Your Earnings: ${{earnings}} (after 20% platform fee)
- Delivery Required By: {{delivery_date}}

View in Dashboard: {{platform_url}}/consultant-dashboard

(c) {{current_year}} {{platform_name}}. All rights reserved.
Manage Email Preferences: {{platform_url}}/settings/notifications`,
		RequiredVariables: []string{"consultant_name", "student_name", "service_title", "price", "earnings", "delivery_date"},
	},

	NewMessage: {
		ID:      NewMessage,
		Name:    "New Message",
		Subject: "New message from {{sender_name}}",
		HTMLTemplate: `<!DOCTYPE html>
<html>
<head>
  <style>
    body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
    .container { max-width: 600px; margin: 0 auto; padding: 20px; }
    .header { background: #6366F1; color: white; padding: 20px; text-align: center; }
    .content { background: white; padding: 20px; border: 1px solid #ddd; }
    .message-preview { background: #f5f5f5; padding: 15px; border-left: 3px solid #6366F1; margin: 20px 0; }
    .button { display: inline-block; padding: 12px 24px; background: #6366F1; color: white; text-decoration: none; border-radius: 5px; }
    .footer { text-align: center; padding: 20px; color: #666; font-size: 12px; }
  </style>
</head>
<body>
  <div class="container">
    <div class="header">
      <h1>New Message</h1>
    </div>
    <div class="content">
      <p>You have a new message from <strong>{{sender_name}}</strong>:</p>
      <div class="message-preview">
        {{message_preview}}...
      </div>
      <p style="text-align: center; margin: 30px 0;">
        <a href="{{platform_url}}/messages/{{conversation_id}}" class="button">Read Full Message</a>
      </p>
    </div>
    <div class="footer">
      <p>&copy; {{current_year}} {{platform_name}}. All rights reserved.</p>
      <p><a href="{{platform_url}}/settings/notifications">Manage Email Preferences</a></p>
    </div>
  </div>
</body>
</html>`,
		TextTemplate: `New Message

You have a new message from {{sender_name}}:

"{{message_preview}}..."

Read Full Message: {{platform_url}}/messages/{{conversation_id}}

(c) {{current_year}} {{platform_name}}. All rights reserved.
Manage Email Preferences: {{platform_url}}/settings/notifications`,
		RequiredVariables: []string{"sender_name", "message_preview", "conversation_id"},
	},
}
