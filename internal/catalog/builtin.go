// ABOUTME: Built-in demonstration catalog
// ABOUTME: Five consecutive ocean clips cut from one royalty-free video
package catalog

// Default returns the built-in ocean catalog
func Default() *Catalog {
	return &Catalog{
		Source: MediaSource{
			URI:  "https://cdn.pixabay.com/vimeo/328224049/ocean-49267.mp4?width=1280&hash=f2c0e975b3af8c58e7aa634cc0c739455892d3e8",
			Kind: KindDirect,
		},
		Clips: []Clip{
			{
				ID:           "clip1",
				Title:        "Waves Crashing",
				Description:  "Beautiful ocean waves breaking on the shore",
				StartTime:    0,
				EndTime:      5,
				ThumbnailRef: "https://cdn.pixabay.com/photo/2016/11/29/04/19/ocean-1867285_640.jpg",
			},
			{
				ID:           "clip2",
				Title:        "Calm Waters",
				Description:  "Peaceful view of the ocean surface",
				StartTime:    5,
				EndTime:      10,
				ThumbnailRef: "https://cdn.pixabay.com/photo/2017/03/27/14/49/beach-2179183_640.jpg",
			},
			{
				ID:           "clip3",
				Title:        "Ocean Horizon",
				Description:  "Wide angle shot of the ocean meeting the sky",
				StartTime:    10,
				EndTime:      15,
				ThumbnailRef: "https://cdn.pixabay.com/photo/2016/11/19/12/58/seagulls-1839598_640.jpg",
			},
			{
				ID:           "clip4",
				Title:        "Distant View",
				Description:  "Far view of the ocean from the shore",
				StartTime:    15,
				EndTime:      20,
				ThumbnailRef: "https://cdn.pixabay.com/photo/2016/03/04/19/36/beach-1236581_640.jpg",
			},
			{
				ID:           "clip5",
				Title:        "Concluding Waves",
				Description:  "Final view of the ocean waves",
				StartTime:    20,
				EndTime:      25,
				ThumbnailRef: "https://cdn.pixabay.com/photo/2014/08/15/11/29/beach-418742_640.jpg",
			},
		},
	}
}
