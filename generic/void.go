package generic

// Void is the zero-size value type, used for set membership and for Result values that carry only an error.
type Void struct{}

func NewVoid() Void {
	return Void{}
}
