package views

// DefaultModalWidth is the rendered width of the receipt modal, in pixels.
const DefaultModalWidth = 800

// Modal is the server side model of the receipt modal. It records what the
// bills container asks of it and is rendered with ReceiptModal.
type Modal struct {
	width int
	url   string
	img   int
	shown int
}

func NewModal(width int) *Modal {
	if width <= 0 {
		width = DefaultModalWidth
	}
	return &Modal{width: width}
}

func (m *Modal) Width() int { return m.width }

func (m *Modal) SetImage(url string, width int) {
	m.url = url
	m.img = width
}

func (m *Modal) Show() { m.shown++ }

// ShowCount reports how many times Show was called.
func (m *Modal) ShowCount() int { return m.shown }

func (m *Modal) Data() ModalData {
	return ModalData{
		URL:        m.url,
		ImageWidth: m.img,
		ModalWidth: m.width,
		Show:       m.shown > 0,
	}
}
