package archive

// Tagged unions archive as a discriminant followed by the payload of the
// selected variant, padded to the union's common alignment. The discriminant
// is the smallest unsigned integer that fits the variant count; Tag8 through
// Tag64 are the admissible widths. The archived mirror is a user-declared
// struct whose CheckBytes validates the discriminant with CheckTag and then
// only the selected variant's payload.
//
// There is no generic union type: Go unions are declared per use, the way
// the serializer's own containers declare theirs. ArchivedOption shows the
// null-pointer special case of the same idea.
type (
	Tag8  = U8
	Tag16 = U16
	Tag32 = U32
	Tag64 = U64
)
