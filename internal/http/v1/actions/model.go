package actions

// Notification is the transient message the page shows after an action.
type Notification struct {
	Icon              string `json:"icon"                 doc:"Notification icon"                           example:"success" enum:"success,info,error"`
	Title             string `json:"title"                doc:"Notification title"                          example:"Login Event Pushed!"`
	Text              string `json:"text,omitempty"       doc:"Secondary text"`
	TimerMs           int    `json:"timerMs,omitempty"    doc:"Auto-dismiss delay in milliseconds; 0 keeps it open" example:"1500"`
	ShowConfirmButton bool   `json:"showConfirmButton"    doc:"Whether a confirm button is shown"           example:"false"`
}

// ActionResponse is the body returned by every action.
type ActionResponse struct {
	Result       string       `json:"result"       doc:"Result kind" example:"ok" enum:"ok,incomplete_or_invalid_date,invalid_phone_format,insecure_context,sdk_unavailable,sdk_call_failed"`
	Notification Notification `json:"notification" doc:"Notification to display"`
}
