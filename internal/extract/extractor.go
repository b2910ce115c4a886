package extract

// Extractor is a swappable extraction strategy. Implementations must be
// deterministic: the same bytes always produce the same Document.
type Extractor interface {
	Extract(input []byte) Document
}

// HeuristicExtractor applies FromHTML's container scoring and boilerplate
// pruning. It is the default strategy everywhere.
type HeuristicExtractor struct{}

func (HeuristicExtractor) Extract(input []byte) Document {
	return FromHTML(input)
}
