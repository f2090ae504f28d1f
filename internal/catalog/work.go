package catalog

import "time"

// AgeCategory is the vendor's work age rating.
type AgeCategory int

const (
	AgeAllAges AgeCategory = 1
	AgeR15     AgeCategory = 2
	AgeR18     AgeCategory = 3
)

func (a AgeCategory) String() string {
	switch a {
	case AgeAllAges:
		return "all-ages"
	case AgeR15:
		return "r15"
	case AgeR18:
		return "r18"
	default:
		return "unknown"
	}
}

// WorkType is the vendor's three-letter work category code.
type WorkType string

const (
	WorkTypeAction         WorkType = "ACN"
	WorkTypeAdventure      WorkType = "ADV"
	WorkTypeCGIllust       WorkType = "ICG"
	WorkTypeDigitalNovel   WorkType = "DNV"
	WorkTypeGekiga         WorkType = "SCM"
	WorkTypeIllustMaterial WorkType = "IMT"
	WorkTypeManga          WorkType = "MNG"
	WorkTypeMusic          WorkType = "MUS"
	WorkTypeNovel          WorkType = "NRE"
	WorkTypeRolePlaying    WorkType = "RPG"
	WorkTypeSimulation     WorkType = "SLN"
	WorkTypeTool           WorkType = "TOL"
	WorkTypeVideo          WorkType = "MOV"
	WorkTypeVoiceASMR      WorkType = "SOU"
	WorkTypeVoicedComic    WorkType = "VCM"
	WorkTypeWebtoon        WorkType = "WBT"
)

// Work is a DLsite product.
type Work struct {
	ProductID   string
	SiteID      string
	MakerID     string
	Name        string
	AgeCategory AgeCategory
	WorkType    WorkType
	BookType    string
	Circle      string
	Brand       string
	Publisher   string
	Series      string
	PageCount   int
	RegistDate  time.Time
}

// ReleaseDate is the registration date under its public-facing name.
func (w Work) ReleaseDate() time.Time {
	return w.RegistDate
}
