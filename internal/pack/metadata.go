package pack

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

// MetadataName is the archive entry that identifies a resource pack.
const MetadataName = "pack.mcmeta"

type metadataFile struct {
	Pack metadataPack `json:"pack"`
}

type metadataPack struct {
	PackFormat  int    `json:"pack_format"`
	Description string `json:"description"`
}

// Description is the pack description shown in the game's pack list.
func Description(gainDB int) string {
	return fmt.Sprintf("mineardmg: all sounds %ddb", gainDB)
}

// Metadata renders pack.mcmeta for the given pack format and gain.
func Metadata(packVersion, gainDB int) ([]byte, error) {
	return jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(metadataFile{
		Pack: metadataPack{PackFormat: packVersion, Description: Description(gainDB)},
	})
}
