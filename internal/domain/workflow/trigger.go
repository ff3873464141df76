package workflow

// Trigger is a PO action
type Trigger string

const (
	TriggerAssign  Trigger = "ASSIGN"
	TriggerApprove Trigger = "APPROVE"
	TriggerCancel  Trigger = "CANCEL"
	TriggerReturn  Trigger = "RETURN"
)

func (t Trigger) String() string {
	return string(t)
}
