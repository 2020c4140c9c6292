package gmail

type MessageID string
type LabelID string

// LabelInbox is the provider's built-in inbox label. The resolver uses it
// as a last-resort target when a managed label cannot be resolved.
const LabelInbox LabelID = "INBOX"

// MessageRef is the cheap form of a message: its id and current labels,
// enough for the duplicate guard to decide without a full fetch.
type MessageRef struct {
	ID     MessageID
	Labels []LabelID
}

// Message is the full form fetched only for messages that still need triage.
type Message struct {
	ID      MessageID
	Labels  []LabelID
	From    string
	Subject string
	Snippet string
	Body    BodyPart
}

// BodyPart is one node of the message's MIME tree, content already decoded.
type BodyPart struct {
	MIMEType string
	Data     string
	Children []BodyPart
}

// Label is a mailbox label as the provider reports it.
type Label struct {
	ID   LabelID
	Name string
}
