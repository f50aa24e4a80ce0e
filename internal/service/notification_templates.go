package service

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/noah-isme/student-affairs-api/internal/models"
)

// Template names, also used as the notification failure metric label.
const (
	TemplateParentApproval = "parent_approval"
	TemplateLeaveStatus    = "leave_status"
	TemplateApprovalOTP    = "approval_otp"
)

var notificationTemplates = template.Must(template.New("notifications").Parse(`
{{define "parent_approval"}}<html><body>
<h2>Leave Request Approval Needed</h2>
<p>Dear Parent,</p>
<p>Your child, <strong>{{.StudentName}}</strong>, has applied for leave.</p>
<ul>
<li><strong>Dates:</strong> {{.From}} to {{.To}}</li>
<li><strong>Reason:</strong> {{.Reason}}</li>
</ul>
<p>Please review the request using the link below:</p>
<a href="{{.Link}}" style="background-color:#10b981;color:white;padding:10px 20px;text-decoration:none;border-radius:5px;">Approve / Reject Request</a>
<p>If the button does not work, copy this link: {{.Link}}</p>
</body></html>{{end}}
{{define "leave_status"}}<html><body>
<h2>Leave Request Update</h2>
<p>Dear Student,</p>
<p>Your leave request for {{.From}} to {{.To}} has been <strong style="color:{{.Color}}">{{.Status}}</strong>.</p>
{{if .Remarks}}<p><strong>Comments:</strong> {{.Remarks}}</p>{{end}}
<p>Regards,<br>Academic Team</p>
</body></html>{{end}}
{{define "approval_otp"}}<html><body>
<h2>Leave Approval Code</h2>
<p>Dear Student,</p>
<p>Your mentor requested an approval code for your leave from {{.From}} to {{.To}}.</p>
<p style="font-size:24px;letter-spacing:4px;"><strong>{{.Code}}</strong></p>
<p>Share it with your mentor in person. It expires at {{.ExpiresAt}}.</p>
</body></html>{{end}}
`))

func renderTemplate(name string, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := notificationTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}

func parentApprovalNotification(leave *models.LeaveRequest, studentName, link string) (models.Notification, error) {
	body, err := renderTemplate(TemplateParentApproval, map[string]string{
		"StudentName": studentName,
		"From":        leave.FromDate.Format(models.DateLayout),
		"To":          leave.ToDate.Format(models.DateLayout),
		"Reason":      leave.Reason,
		"Link":        link,
	})
	if err != nil {
		return models.Notification{}, err
	}
	return models.Notification{
		To:       []string{leave.ParentEmail},
		Subject:  "Action Required: Leave Request for " + studentName,
		Body:     body,
		HTML:     true,
		Template: TemplateParentApproval,
	}, nil
}

func leaveStatusNotification(leave *models.LeaveRequest, studentEmail, status string, remarks *string) (models.Notification, error) {
	color := "#ef4444"
	if status == string(models.MentorStatusApproved) {
		color = "#10b981"
	}
	data := map[string]string{
		"From":   leave.FromDate.Format(models.DateLayout),
		"To":     leave.ToDate.Format(models.DateLayout),
		"Status": status,
		"Color":  color,
	}
	if remarks != nil {
		data["Remarks"] = *remarks
	}
	body, err := renderTemplate(TemplateLeaveStatus, data)
	if err != nil {
		return models.Notification{}, err
	}
	return models.Notification{
		To:       []string{studentEmail},
		Subject:  "Leave Request " + status,
		Body:     body,
		HTML:     true,
		Template: TemplateLeaveStatus,
	}, nil
}

func approvalOTPNotification(leave *models.LeaveRequest, studentEmail, code string, expiresAt time.Time) (models.Notification, error) {
	body, err := renderTemplate(TemplateApprovalOTP, map[string]string{
		"From":      leave.FromDate.Format(models.DateLayout),
		"To":        leave.ToDate.Format(models.DateLayout),
		"Code":      code,
		"ExpiresAt": expiresAt.Format(time.RFC1123),
	})
	if err != nil {
		return models.Notification{}, err
	}
	return models.Notification{
		To:       []string{studentEmail},
		Subject:  "Leave approval code",
		Body:     body,
		HTML:     true,
		Template: TemplateApprovalOTP,
	}, nil
}
