package imagecache

// AvatarPalette is the fixed fallback palette for users without an uploaded
// avatar. The first entry matches the app's primary color.
var AvatarPalette = []string{
	"#1E90FF",
	"#FF4C54",
	"#2ECC71",
	"#F39C12",
	"#9B59B6",
	"#16A085",
}

// PickIndex maps a key to a stable index in [0, poolSize) by summing the
// key's rune values modulo the pool size. It is a pure function: the same
// key and pool size always yield the same index.
func PickIndex(key string, poolSize int) int {
	if poolSize <= 0 {
		return -1
	}
	sum := 0
	for _, r := range key {
		sum += int(r)
	}
	return sum % poolSize
}
