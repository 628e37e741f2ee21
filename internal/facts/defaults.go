package facts

import "github.com/prodentai/companion/internal/models"

// Item is a fact as returned by the API.
type Item struct {
	ID       uint   `json:"id"`
	Title    string `json:"title"`
	Content  string `json:"content"`
	Category string `json:"category"`
}

// CategoryInfo names a fact or FAQ category.
type CategoryInfo struct {
	Name        string `json:"name"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Fact categories
const (
	CategoryHygiene    = "hygiene"
	CategoryNutrition  = "nutrition"
	CategoryPrevention = "prevention"
	CategoryHistory    = "history"
)

var Categories = []CategoryInfo{
	{CategoryHygiene, "Hygiene", "Facts about proper oral hygiene"},
	{CategoryNutrition, "Nutrition", "How food affects dental health"},
	{CategoryPrevention, "Prevention", "Ways to prevent dental problems"},
	{CategoryHistory, "History", "Curious facts from the history of dentistry"},
}

// BracesCategories groups the braces FAQ.
var BracesCategories = []CategoryInfo{
	{"pain", "Pain and discomfort", "Questions about pain and discomfort from braces"},
	{"food", "Food", "What you can and cannot eat with braces"},
	{"cleaning", "Cleaning", "How to clean braces properly"},
	{"emergency", "Emergencies", "What to do when something goes wrong"},
}

// Defaults are served while the facts table has no rows for a category.
var Defaults = []Item{
	{1, "Electric toothbrushes", "Electric toothbrushes remove plaque more effectively than manual ones thanks to their consistent motion.", CategoryHygiene},
	{2, "Brushing time", "Most people brush for only 45 to 60 seconds, while about 2 minutes is recommended.", CategoryHygiene},
	{3, "Soft bristles", "A soft brush cleans as well as a hard one but is gentler on the gums.", CategoryHygiene},
	{4, "Replacing your toothbrush", "Replacing your toothbrush every 2 to 3 months reduces bacterial build-up.", CategoryHygiene},
	{5, "Cleaning the tongue", "The tongue is one of the most bacteria-rich places in the mouth; cleaning it regularly reduces bad breath.", CategoryHygiene},
	{6, "Rinsing after brushing", "Rinsing right after brushing can wash away the fluoride from your toothpaste.", CategoryHygiene},
	{7, "How much toothpaste", "You only need a pea-sized amount of toothpaste.", CategoryHygiene},
	{8, "Floss first", "Flossing before brushing helps fluoride reach the spaces between teeth.", CategoryHygiene},
	{9, "Flossing gently", "Most people floss too harshly and injure their gums.", CategoryHygiene},
	{10, "Angled bristles", "Brushes with angled bristles reach hard-to-clean areas better.", CategoryHygiene},
	{11, "Whitening toothpaste", "Whitening toothpastes mostly work through abrasives rather than chemistry.", CategoryHygiene},
	{12, "Plaque forms fast", "Plaque starts forming again 4 to 12 hours after brushing.", CategoryHygiene},
	{13, "Mouthwash", "Mouthwash complements brushing and flossing but never replaces them.", CategoryHygiene},
	{14, "Brushing pressure", "Pressing too hard with the brush can wear enamel at the neck of the tooth.", CategoryHygiene},
	{15, "Brushing before bed", "Brushing before bed matters most because saliva flow almost stops at night.", CategoryHygiene},

	{16, "Acidic drinks", "Acidic drinks such as cola soften enamel even when they are sugar-free.", CategoryNutrition},
	{17, "Hard cheese", "Hard cheeses help neutralise acidity in the mouth.", CategoryNutrition},
	{18, "Crunchy vegetables", "Crunchy vegetables like carrots clean teeth mechanically.", CategoryNutrition},
	{19, "Frequent snacking", "Frequent snacks are worse than one large meal because they keep acidity high.", CategoryNutrition},
	{20, "Fruit acids", "Fruit is healthy, but its acids can temporarily weaken enamel.", CategoryNutrition},
	{21, "Sticky sweets", "Sticky sweets such as caramel and toffee stay on teeth longer.", CategoryNutrition},
	{22, "Fruit juice", "Natural juices can be as acidic as soda.", CategoryNutrition},
	{23, "Nuts and minerals", "Nuts contain minerals that help strengthen enamel.", CategoryNutrition},
	{24, "No sugar at night", "Skipping sugar before bed is especially important since saliva does not rinse teeth at night.", CategoryNutrition},
	{25, "Bread and buns", "Bread and buns start turning into sugars while saliva breaks them down.", CategoryNutrition},
	{26, "Water after meals", "Water is the best drink for neutralising acids after a meal.", CategoryNutrition},
	{27, "Green tea", "Green tea contains catechins that slow bacterial growth.", CategoryNutrition},
	{28, "Protein for gums", "Protein is an important building block for repairing gum tissue.", CategoryNutrition},
	{29, "Dark berries", "Dark berries can stain enamel while light ones do not.", CategoryNutrition},
	{30, "Dairy", "Dairy products contain the calcium your teeth need.", CategoryNutrition},

	{31, "Regular check-ups", "Seeing a dentist every 6 months helps catch hidden problems early.", CategoryPrevention},
	{32, "Fluoride", "Fluoride treatment strengthens enamel, especially thin enamel.", CategoryPrevention},
	{33, "Night guards", "Night guards prevent tooth wear caused by bruxism.", CategoryPrevention},
	{34, "Drink water", "Drinking water after meals lowers the risk of cavities.", CategoryPrevention},
	{35, "Fewer snacks", "Avoiding snacks reduces acid attacks on enamel.", CategoryPrevention},
	{36, "Gum care", "Caring for your gums is as important as caring for your teeth.", CategoryPrevention},
	{37, "Orthodontic problems", "Crooked teeth raise cavity risk by creating hard-to-clean areas.", CategoryPrevention},
	{38, "Smoking and gums", "Smoking reduces blood supply to the gums and slows healing.", CategoryPrevention},
	{39, "Bite problems", "A bad bite can overload individual teeth.", CategoryPrevention},
	{40, "Baby teeth", "Baby teeth need preventive care just like permanent ones.", CategoryPrevention},
	{41, "Water flossers", "A water flosser helps clean below the gum line.", CategoryPrevention},
	{42, "Vitamin D", "Vitamin D supports healthy bone tissue.", CategoryPrevention},
	{43, "Replacing old fillings", "Replacing worn fillings in time prevents secondary decay.", CategoryPrevention},
	{44, "Sports mouthguards", "Sports mouthguards protect teeth from impacts.", CategoryPrevention},
	{45, "Wait after acidic food", "Do not brush right after acidic food; enamel is temporarily softened.", CategoryPrevention},

	{46, "The first toothbrushes", "The first bristle toothbrushes appeared in 15th century China and used boar bristles.", CategoryHistory},
	{47, "Egyptian toothpaste", "Ancient Egyptians made toothpaste from pumice and ash.", CategoryHistory},
	{48, "Ancient fillings", "Archaeologists found beeswax fillings more than 6000 years old.", CategoryHistory},
	{49, "Barber surgeons", "In the Middle Ages teeth were often pulled by barbers rather than doctors.", CategoryHistory},
	{50, "Toothache in antiquity", "Toothache was one of the most common reasons to see a physician in antiquity.", CategoryHistory},
	{51, "Metal fillings", "The first metal fillings appeared in Japan several centuries ago.", CategoryHistory},
	{52, "The tooth worm", "The tooth worm was a popular ancient explanation for decay, known even in Mesopotamia.", CategoryHistory},
	{53, "Porcelain dentures", "In the 19th century dentures were often made of porcelain.", CategoryHistory},
	{54, "The electric drill", "The first electric dental drill was invented in 1875.", CategoryHistory},
	{55, "Medieval recipes", "Medieval toothpaste recipes included honey, eggs and ground bones.", CategoryHistory},
	{56, "Roman dentists", "Ancient Rome had professional dentists.", CategoryHistory},
	{57, "Silk floss", "The first dental floss was made of silk.", CategoryHistory},
	{58, "Novocaine", "Novocaine was first used in dentistry in 1905.", CategoryHistory},
	{59, "Magic cures", "People once believed teeth could be healed with magic and spells.", CategoryHistory},
	{60, "Before anaesthesia", "Before anaesthesia, pulling a tooth was one of the most painful procedures in medicine.", CategoryHistory},
}

// DefaultsFor returns the built-in facts of one category.
func DefaultsFor(category string) []Item {
	out := []Item{}
	for _, f := range Defaults {
		if f.Category == category {
			out = append(out, f)
		}
	}
	return out
}

// DefaultBracesFAQs is the reference set seeded into an empty braces_faqs table.
func DefaultBracesFAQs() []models.BracesFAQ {
	faq := func(category, question, answer string, keywords ...string) models.BracesFAQ {
		return models.BracesFAQ{
			Question: question,
			Answer:   answer,
			Category: category,
			Keywords: models.JSONOf(keywords),
			IsActive: true,
		}
	}
	return []models.BracesFAQ{
		faq("pain", "How long do teeth hurt after braces are fitted or adjusted?",
			"Soreness usually lasts 3 to 5 days. Eat soft food, use a cold compress and take a pain reliever your doctor approved.",
			"pain", "hurt", "sore", "ache"),
		faq("pain", "The brackets rub my cheeks. What helps?",
			"Cover the bracket with orthodontic wax and rinse with warm salt water. Tell your orthodontist if a sore lasts more than a week.",
			"wax", "cheek", "rub", "ulcer"),
		faq("food", "What can I eat with braces?",
			"Soft foods are best: yogurt, soups, porridge, pasta, eggs and cooked vegetables. Cut firm food into small pieces.",
			"eat", "food", "diet", "soft"),
		faq("food", "Which foods should I avoid?",
			"Avoid hard, sticky and chewy food such as nuts, toffee, chewing gum, popcorn and crusty bread. They can break brackets.",
			"avoid", "sticky", "hard", "gum", "nuts"),
		faq("cleaning", "How do I brush with braces?",
			"Brush after every meal with a soft brush, angling it above and below the brackets. Use an interdental brush between brackets.",
			"brush", "clean", "toothbrush"),
		faq("cleaning", "Do I still need to floss?",
			"Yes. Use a floss threader, super floss or a water flosser once a day to clean under the wire.",
			"floss", "threader", "irrigator"),
		faq("emergency", "A bracket came off. What should I do?",
			"Contact your orthodontist right away. Keep the bracket and do not try to glue it back yourself.",
			"bracket", "came off", "detached", "broken", "loose"),
		faq("emergency", "A wire is poking my cheek.",
			"Push the wire back with a cotton swab or cover it with wax, then call your orthodontist. Do not cut it yourself.",
			"wire", "poking", "poke", "sharp"),
	}
}
