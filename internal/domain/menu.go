package domain

// MenuItem is one dish or drink on the menu.
type MenuItem struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	PriceCents  int64  `json:"priceCents"`
	Category    string `json:"category"`
	ImageURL    string `json:"imageUrl,omitempty"`
	Available   bool   `json:"available"`
}

// FAQSection groups questions shown together on the contact page.
type FAQSection struct {
	Key   string    `json:"key"`
	Title string    `json:"title"`
	Items []FAQItem `json:"items"`
}

type FAQItem struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}
