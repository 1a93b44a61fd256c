package model

// DefaultSiteContent returns the content seeded on first start or after a corrupt read.
func DefaultSiteContent() SiteContent {
	return SiteContent{
		Hero: HeroSection{
			Title:        "Masa Depan AI Ada di Sini",
			SubtitleHTML: "<p>Aetheria AI menyediakan solusi AI canggih untuk mempercepat inovasi dan mendorong pertumbuhan bisnis Anda.</p>",
			CTALabel:     "Jelajahi Produk Kami",
		},
		Features: FeaturesSection{
			Title:        "Mengapa Memilih Aetheria AI?",
			SubtitleHTML: "<p>Kami menggabungkan teknologi mutakhir dengan desain yang intuitif untuk memberikan hasil yang tak tertandingi.</p>",
			Items: []FeatureItem{
				{Icon: "🚀", Title: "Performa Cepat", Description: "Model kami dioptimalkan untuk kecepatan, memberikan hasil dalam hitungan detik."},
				{Icon: "🔒", Title: "Aman & Terpercaya", Description: "Keamanan data Anda adalah prioritas utama kami dengan enkripsi end-to-end."},
				{Icon: "💡", Title: "Solusi Inovatif", Description: "Terus-menerus mendorong batas-batas dari apa yang mungkin dilakukan oleh AI."},
			},
		},
		Products: ProductsSection{
			Title:        "Produk Unggulan Kami",
			SubtitleHTML: "<p>Temukan alat yang tepat untuk mengubah alur kerja Anda dan membuka potensi baru.</p>",
		},
		Pricing: PricingSection{
			Title:        "Paket Harga Fleksibel",
			SubtitleHTML: "<p>Pilih paket yang paling sesuai dengan kebutuhan Anda, mulai dari proyek pribadi hingga skala perusahaan.</p>",
			Tiers: []PricingTier{
				{Name: "Pemula", Price: "Rp 150k", Features: []string{"Akses 1 Produk", "100 Request/Bulan", "Dukungan Komunitas"}},
				{Name: "Pro", Price: "Rp 500k", Features: []string{"Akses 5 Produk", "1000 Request/Bulan", "Dukungan Email Prioritas", "Akses API"}, IsFeatured: true},
				{Name: "Enterprise", Price: "Hubungi Kami", Features: []string{"Akses Semua Produk", "Request Tanpa Batas", "Dukungan Khusus", "SLA"}},
			},
		},
		FAQ: FAQSection{
			Title: "Pertanyaan yang Sering Diajukan",
			Items: []FAQItem{
				{Question: "Apa itu Aetheria AI?", Answer: "Aetheria AI adalah platform yang menyediakan berbagai produk digital berbasis kecerdasan buatan untuk membantu berbagai industri."},
				{Question: "Bagaimana cara memulai?", Answer: "Cukup pilih produk yang Anda minati, pilih paket harga, dan Anda bisa langsung menggunakannya setelah pembayaran."},
				{Question: "Apakah ada masa percobaan gratis?", Answer: "Saat ini kami tidak menawarkan masa percobaan gratis, namun kami memiliki paket Pemula yang terjangkau untuk Anda coba."},
			},
		},
		CTA: CTASection{
			Title:        "Siap untuk Mengubah Bisnis Anda?",
			SubtitleHTML: "<p>Bergabunglah dengan ribuan pengguna yang telah merasakan kekuatan AI bersama Aetheria.</p>",
			ButtonLabel:  "Mulai Sekarang",
		},
	}
}

// DefaultProducts returns the seeded product catalog.
func DefaultProducts() []Product {
	return []Product{
		{
			ID:              "1",
			Name:            "QuantumLeap AI",
			DescriptionHTML: "<p>A revolutionary AI that predicts market trends with 99% accuracy. Perfect for financial analysts and traders.</p>",
			ImageURL:        "https://picsum.photos/seed/QuantumLeap/600/400",
		},
		{
			ID:              "2",
			Name:            "SynthArt Pro",
			DescriptionHTML: "<p>Generate stunning, high-resolution artwork from simple text prompts. Unleash your inner artist without picking up a brush.</p>",
			ImageURL:        "https://picsum.photos/seed/SynthArt/600/400",
		},
		{
			ID:              "3",
			Name:            "CodeScribe AI",
			DescriptionHTML: "<p>Your personal AI pair programmer. It completes code, finds bugs, and writes documentation, boosting your productivity by 5x.</p>",
			ImageURL:        "https://picsum.photos/seed/CodeScribe/600/400",
		},
	}
}

// DefaultPages returns the empty custom page set.
func DefaultPages() []CustomPage {
	return []CustomPage{}
}
