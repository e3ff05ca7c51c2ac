package a2ui

// Kind selects how a component renders. The constants form the built-in set;
// catalogs may register additional tags.
type Kind string

const (
	KindUnknown          Kind = ""
	KindContainer        Kind = "Container"
	KindBox              Kind = "Box"
	KindPaper            Kind = "Paper"
	KindCard             Kind = "Card"
	KindColumn           Kind = "Column"
	KindRow              Kind = "Row"
	KindStack            Kind = "Stack"
	KindList             Kind = "List"
	KindGrid             Kind = "Grid"
	KindGridContainer    Kind = "GridContainer"
	KindGridItem         Kind = "GridItem"
	KindText             Kind = "Text"
	KindBadge            Kind = "Badge"
	KindChip             Kind = "Chip"
	KindDivider          Kind = "Divider"
	KindImage            Kind = "Image"
	KindIcon             Kind = "Icon"
	KindChart            Kind = "Chart"
	KindLineChart        Kind = "LineChart"
	KindBarChart         Kind = "BarChart"
	KindPieChart         Kind = "PieChart"
	KindLinearProgress   Kind = "LinearProgress"
	KindCircularProgress Kind = "CircularProgress"
)

// ParseKind maps a component tag to a built-in Kind, or KindUnknown.
func ParseKind(tag string) Kind {
	switch k := Kind(tag); k {
	case KindContainer, KindBox, KindPaper, KindCard,
		KindColumn, KindRow, KindStack, KindList,
		KindGrid, KindGridContainer, KindGridItem,
		KindText, KindBadge, KindChip, KindDivider,
		KindImage, KindIcon,
		KindChart, KindLineChart, KindBarChart, KindPieChart,
		KindLinearProgress, KindCircularProgress:
		return k
	default:
		return KindUnknown
	}
}
