package main

import (
	"os"

	"github.com/whalemap/whalemap/heatmapservice"
)

func main() {
	if err := heatmapservice.Run(); err != nil {
		os.Exit(1)
	}
}
