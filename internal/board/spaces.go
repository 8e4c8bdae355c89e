package board

// defaultSpaces returns the fixed 40-space board. Groups follow the
// classic topology: eight street groups, four pipeline stations and
// two cloud utilities, with GO / jail / free-parking / go-to-jail on
// the corners.
func defaultSpaces() []Space {
	return []Space{
		{ID: "go", Name: "GO", Position: 0, Special: SpecialGo},
		{ID: "cobol-corner", Name: "COBOL Corner", Position: 1, Price: 60, BaseRent: 2, RentByLevel: []int{10, 30, 90, 160, 250}, Group: "legacy", UpgradeCost: 50},
		{ID: "chest-1", Name: "Community Chest", Position: 2, Special: SpecialCommunityChest},
		{ID: "fortran-flats", Name: "Fortran Flats", Position: 3, Price: 60, BaseRent: 4, RentByLevel: []int{20, 60, 180, 320, 450}, Group: "legacy", UpgradeCost: 50},
		{ID: "income-tax", Name: "Income Tax", Position: 4, Special: SpecialTax, TaxAmount: 200},
		{ID: "github-station", Name: "GitHub Station", Position: 5, Price: 200, BaseRent: 25, Group: "pipeline", Special: SpecialRailroad, ScalesWithGroup: true},
		{ID: "bash-boulevard", Name: "Bash Boulevard", Position: 6, Price: 100, BaseRent: 6, RentByLevel: []int{30, 90, 270, 400, 550}, Group: "scripting", UpgradeCost: 50},
		{ID: "chance-1", Name: "Chance", Position: 7, Special: SpecialChance},
		{ID: "perl-place", Name: "Perl Place", Position: 8, Price: 100, BaseRent: 6, RentByLevel: []int{30, 90, 270, 400, 550}, Group: "scripting", UpgradeCost: 50},
		{ID: "lua-lane", Name: "Lua Lane", Position: 9, Price: 120, BaseRent: 8, RentByLevel: []int{40, 100, 300, 450, 600}, Group: "scripting", UpgradeCost: 50},
		{ID: "jail", Name: "Jail", Position: 10, Special: SpecialJail},
		{ID: "css-court", Name: "CSS Court", Position: 11, Price: 140, BaseRent: 10, RentByLevel: []int{50, 150, 450, 625, 750}, Group: "frontend", UpgradeCost: 100},
		{ID: "aws-power", Name: "AWS Power Co.", Position: 12, Price: 150, BaseRent: 40, Group: "cloud", Special: SpecialUtility, ScalesWithGroup: true},
		{ID: "html-heights", Name: "HTML Heights", Position: 13, Price: 140, BaseRent: 10, RentByLevel: []int{50, 150, 450, 625, 750}, Group: "frontend", UpgradeCost: 100},
		{ID: "react-road", Name: "React Road", Position: 14, Price: 160, BaseRent: 12, RentByLevel: []int{60, 180, 500, 700, 900}, Group: "frontend", UpgradeCost: 100},
		{ID: "gitlab-station", Name: "GitLab Station", Position: 15, Price: 200, BaseRent: 25, Group: "pipeline", Special: SpecialRailroad, ScalesWithGroup: true},
		{ID: "swift-street", Name: "Swift Street", Position: 16, Price: 180, BaseRent: 14, RentByLevel: []int{70, 200, 550, 750, 950}, Group: "mobile", UpgradeCost: 100},
		{ID: "chest-2", Name: "Community Chest", Position: 17, Special: SpecialCommunityChest},
		{ID: "kotlin-corner", Name: "Kotlin Corner", Position: 18, Price: 180, BaseRent: 14, RentByLevel: []int{70, 200, 550, 750, 950}, Group: "mobile", UpgradeCost: 100},
		{ID: "flutter-freeway", Name: "Flutter Freeway", Position: 19, Price: 200, BaseRent: 16, RentByLevel: []int{80, 220, 600, 800, 1000}, Group: "mobile", UpgradeCost: 100},
		{ID: "free-parking", Name: "Free Parking", Position: 20, Special: SpecialFreeParking},
		{ID: "django-drive", Name: "Django Drive", Position: 21, Price: 220, BaseRent: 18, RentByLevel: []int{90, 250, 700, 875, 1050}, Group: "backend", UpgradeCost: 150},
		{ID: "chance-2", Name: "Chance", Position: 22, Special: SpecialChance},
		{ID: "rails-road", Name: "Rails Road", Position: 23, Price: 220, BaseRent: 18, RentByLevel: []int{90, 250, 700, 875, 1050}, Group: "backend", UpgradeCost: 150},
		{ID: "laravel-lane", Name: "Laravel Lane", Position: 24, Price: 240, BaseRent: 20, RentByLevel: []int{100, 300, 750, 925, 1100}, Group: "backend", UpgradeCost: 150},
		{ID: "bitbucket-station", Name: "Bitbucket Station", Position: 25, Price: 200, BaseRent: 25, Group: "pipeline", Special: SpecialRailroad, ScalesWithGroup: true},
		{ID: "pandas-parkway", Name: "Pandas Parkway", Position: 26, Price: 260, BaseRent: 22, RentByLevel: []int{110, 330, 800, 975, 1150}, Group: "data", UpgradeCost: 150},
		{ID: "spark-square", Name: "Spark Square", Position: 27, Price: 260, BaseRent: 22, RentByLevel: []int{110, 330, 800, 975, 1150}, Group: "data", UpgradeCost: 150},
		{ID: "azure-water", Name: "Azure Water Works", Position: 28, Price: 150, BaseRent: 40, Group: "cloud", Special: SpecialUtility, ScalesWithGroup: true},
		{ID: "kafka-crossing", Name: "Kafka Crossing", Position: 29, Price: 280, BaseRent: 24, RentByLevel: []int{120, 360, 850, 1025, 1200}, Group: "data", UpgradeCost: 150},
		{ID: "go-to-jail", Name: "Go To Jail", Position: 30, Special: SpecialGoToJail},
		{ID: "c-street", Name: "C Street", Position: 31, Price: 300, BaseRent: 26, RentByLevel: []int{130, 390, 900, 1100, 1275}, Group: "systems", UpgradeCost: 200},
		{ID: "rust-ridge", Name: "Rust Ridge", Position: 32, Price: 300, BaseRent: 26, RentByLevel: []int{130, 390, 900, 1100, 1275}, Group: "systems", UpgradeCost: 200},
		{ID: "chest-3", Name: "Community Chest", Position: 33, Special: SpecialCommunityChest},
		{ID: "go-gardens", Name: "Go Gardens", Position: 34, Price: 320, BaseRent: 28, RentByLevel: []int{150, 450, 1000, 1200, 1400}, Group: "systems", UpgradeCost: 200},
		{ID: "jenkins-junction", Name: "Jenkins Junction", Position: 35, Price: 200, BaseRent: 25, Group: "pipeline", Special: SpecialRailroad, ScalesWithGroup: true},
		{ID: "chance-3", Name: "Chance", Position: 36, Special: SpecialChance},
		{ID: "tensorflow-terrace", Name: "TensorFlow Terrace", Position: 37, Price: 350, BaseRent: 35, RentByLevel: []int{175, 500, 1100, 1300, 1500}, Group: "ai", UpgradeCost: 200},
		{ID: "luxury-tax", Name: "Luxury Tax", Position: 38, Special: SpecialTax, TaxAmount: 100},
		{ID: "pytorch-plaza", Name: "PyTorch Plaza", Position: 39, Price: 400, BaseRent: 50, RentByLevel: []int{200, 600, 1400, 1700, 2000}, Group: "ai", UpgradeCost: 200},
	}
}
