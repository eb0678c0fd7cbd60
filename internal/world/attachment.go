package world

// AttachmentKind names which slot of the attachment tree an object hangs
// from, per spec.md 4.5's attachment invariants.
type AttachmentKind uint8

const (
	AttachWorld AttachmentKind = iota
	AttachClient
	AttachEntity
	AttachStructure
	AttachPlane
	AttachChunk
)

// Attachment names an object's parent in the world's attachment tree. ID is
// meaningless for AttachWorld, which has no further qualifier.
type Attachment struct {
	Kind AttachmentKind
	ID   TransientID
}

func WorldAttachment() Attachment                  { return Attachment{Kind: AttachWorld} }
func ClientAttachment(id TransientID) Attachment    { return Attachment{Kind: AttachClient, ID: id} }
func EntityAttachment(id TransientID) Attachment    { return Attachment{Kind: AttachEntity, ID: id} }
func StructureAttachment(id TransientID) Attachment { return Attachment{Kind: AttachStructure, ID: id} }
func PlaneAttachment(id TransientID) Attachment     { return Attachment{Kind: AttachPlane, ID: id} }
func ChunkAttachment(id TransientID) Attachment     { return Attachment{Kind: AttachChunk, ID: id} }
