package outbound

type AssembleVideoParams struct {
	ClipFileNames []string
	AudioFileName string
	Resolution    string
}

type VideoMetadata struct {
	DurationSeconds float64
	SizeBytes       int64
	Width           int
	Height          int
}

type AssembleVideoResult struct {
	FileName string
	Metadata VideoMetadata
}

type VideoAssemblerPort interface {
	Assemble(params AssembleVideoParams) (*AssembleVideoResult, error)
}
