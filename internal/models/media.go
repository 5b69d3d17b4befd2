package models

// MediaType is the coarse classification of a stored binary.
// It selects the storage path convention and the public URL segment.
type MediaType string

const (
	MediaTypeImage MediaType = "image"
	MediaTypeVideo MediaType = "video"
	MediaTypeRaw   MediaType = "raw"
)

// ObjectDescriptor is the transient pairing of an incoming binary with its
// allocated remote object key. It is produced by the allocator, written into
// the attachment rows and then used once more to drive the actual upload.
// Never persisted as its own row.
type ObjectDescriptor struct {
	LogicalField string
	ObjectKey    string
	MediaType    MediaType
	TargetFolder string
}
