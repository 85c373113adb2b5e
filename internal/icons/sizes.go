// Package icons renders the full Apple app icon set from a single Android
// launcher image.
package icons

// Entry names one derived icon and its exact pixel dimensions.
type Entry struct {
	Filename string
	Width    int
	Height   int
}

// DefaultSizes returns the icon table the Xcode asset catalog expects,
// in generation order. The filenames match Contents.json in the
// AppIcon.appiconset; do not rename them here without updating the catalog.
func DefaultSizes() []Entry {
	return []Entry{
		// iPhone
		{"Icon-App-20x20@2x.png", 40, 40},
		{"Icon-App-20x20@3x.png", 60, 60},
		{"Icon-App-29x29@2x.png", 58, 58},
		{"Icon-App-29x29@3x.png", 87, 87},
		{"Icon-App-40x40@2x.png", 80, 80},
		{"Icon-App-40x40@3x.png", 120, 120},
		{"Icon-App-60x60@2x.png", 120, 120},
		{"Icon-App-60x60@3x.png", 180, 180},

		// iPad
		{"Icon-App-76x76@1x.png", 76, 76},
		{"Icon-App-76x76@2x.png", 152, 152},
		{"Icon-App-83.5x83.5@2x.png", 167, 167},

		// App Store
		{"Icon-App-1024x1024@1x.png", 1024, 1024},

		// macOS
		{"Icon-Mac-16x16@1x.png", 16, 16},
		{"Icon-Mac-16x16@2x.png", 32, 32},
		{"Icon-Mac-32x32@1x.png", 32, 32},
		{"Icon-Mac-32x32@2x.png", 64, 64},
		{"Icon-Mac-128x128@1x.png", 128, 128},
		{"Icon-Mac-128x128@2x.png", 256, 256},
		{"Icon-Mac-256x256@1x.png", 256, 256},
		{"Icon-Mac-256x256@2x.png", 512, 512},
		{"Icon-Mac-512x512@1x.png", 512, 512},
		{"Icon-Mac-512x512@2x.png", 1024, 1024},
	}
}
