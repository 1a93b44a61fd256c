package storage

// Durable store keys.
const (
	KeySiteContent = "aetheria_page_data"
	KeyProducts    = "aetheria_products"
	KeyCustomPages = "aetheria_custom_pages"
)

// Session store keys.
const (
	KeyPreview       = "aetheria_preview"
	KeyAuthenticated = "isAuthenticated"
)

// DurableKeys lists every key owned by the durable store.
func DurableKeys() []string {
	return []string{KeySiteContent, KeyProducts, KeyCustomPages}
}
