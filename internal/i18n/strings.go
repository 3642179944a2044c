// Package i18n holds the localized string tables and language mappings for
// the assistant's canned replies. Every lookup falls back to English, then
// to a visibly marked placeholder, never to an empty string.
package i18n

import "strings"

var messages = map[string]map[string]string{
	"initial_greeting": {
		"english": "Hello! I'm your virtual assistant. I can help you file a grievance about infrastructure, corruption, government services, or funding problems. What issue are you facing today?",
		"hindi":   "नमस्ते! मैं आपका वर्चुअल सहायक हूँ। मैं आपको बुनियादी ढाँचे, भ्रष्टाचार, सरकारी सेवाओं, या धन संबंधी समस्याओं के बारे में शिकायत दर्ज करने में मदद कर सकता हूँ। आज आप किस समस्या का सामना कर रहे हैं?",
		"tamil":   "வணக்கம்! நான் உங்கள் மெய்நிகர் உதவியாளர். உள்கட்டமைப்பு, ஊழல், அரசாங்க சேவைகள் அல்லது நிதிப் பிரச்சனைகள் பற்றிய புகாரைப் பதிவு செய்ய நான் உங்களுக்கு உதவ முடியும். இன்று நீங்கள் என்ன சிக்கலை எதிர்கொள்கிறீர்கள்?",
		"marathi": "नमस्कार! मी तुमचा व्हर्च्युअल सहाय्यक आहे. पायाभूत सुविधा, भ्रष्टाचार, सरकारी सेवा किंवा निधी समस्यांबद्दल तक्रार दाखल करण्यास मी तुम्हाला मदत करू शकेन. आज तुम्हाला कोणती समस्या भेडसावत आहे?",
		"kannada": "ನಮಸ್ಕಾರ! ನಾನು ನಿಮ್ಮ ವರ್ಚುವಲ್ ಸಹಾಯಕ. ಮೂಲಸೌಕರ್ಯ, ಭ್ರಷ್ಟಾಚಾರ, ಸರ್ಕಾರಿ ಸೇವೆಗಳು ಅಥವಾ ಹಣಕಾಸಿನ ಸಮಸ್ಯೆಗಳ ಕುರಿತು ದೂರನ್ನು ದಾಖಲಿಸಲು ನಾನು ನಿಮಗೆ ಸಹಾಯ ಮಾಡಬಲ್ಲೆ. ಇಂದು ನೀವು ಯಾವ ಸಮಸ್ಯೆಯನ್ನು ಎದುರಿಸುತ್ತಿದ್ದೀರಿ?",
	},
	"farewell": {
		"english": "Goodbye! Have a great day.",
		"hindi":   "अलविदा! आपका दिन शुभ हो।",
	},
	"could_not_understand": {
		"english": "It seems there was an issue with capturing your message or I didn't understand. Let's try that again. Could you please repeat?",
		"hindi":   "लगता है आपकी आवाज़ पकड़ने में कोई समस्या हुई या मुझे समझ नहीं आया। चलिए फिर से प्रयास करते हैं। क्या आप दोहरा सकते हैं?",
	},
	"preparing_form": {
		"english": "Great, I believe I have all the necessary details for your {category} grievance. I'll prepare the form for you to review and submit.",
		"hindi":   "बहुत बढ़िया, मुझे लगता है कि आपकी {category} शिकायत के लिए मेरे पास सभी आवश्यक विवरण हैं। मैं आपके लिए फॉर्म तैयार करूँगा ताकि आप समीक्षा करके जमा कर सकें।",
	},
	"form_submitted": {
		"english": "Your grievance has been noted as submitted. Is there anything else I can help you with today?",
		"hindi":   "आपकी शिकायत जमा कर दी गई है। क्या मैं आज आपकी कोई और मदद कर सकता हूँ?",
	},
	"keep_filling": {
		"english": "Please continue filling the form on the right. Let me know if you have questions or when you're done and have submitted it.",
		"hindi":   "कृपया दाईं ओर दिए गए फ़ॉर्म को भरते रहें। यदि आपके कोई प्रश्न हैं या जब आप भर चुके हों और जमा कर चुके हों तो मुझे बताएं।",
	},
	"lets_update": {
		"english": "No problem. Let's update your information. What would you like to change or provide first?",
		"hindi":   "कोई बात नहीं। चलिए आपकी जानकारी अपडेट करते हैं। आप सबसे पहले क्या बदलना या प्रदान करना चाहेंगे?",
	},
	"category_denied": {
		"english": "My apologies. If '{category}' is not the right category, let's try to understand the issue again.",
		"hindi":   "क्षमा करें। यदि '{category}' सही श्रेणी नहीं है, तो चलिए समस्या को फिर से समझने का प्रयास करते हैं।",
	},
	"lost_track": {
		"english": "I seem to have lost my place. Let's start over. What issue are you facing?",
		"hindi":   "मैं अपनी जगह भूल गया लगता हूँ। चलिए फिर से शुरू करते हैं। आप किस समस्या का सामना कर रहे हैं?",
	},
	"internal_form_error": {
		"english": "Internal error: Form details not found for this category. I'll have to restart our conversation.",
		"hindi":   "आंतरिक त्रुटि: इस श्रेणी के लिए फ़ॉर्म विवरण नहीं मिला। मुझे हमारी बातचीत पुनः आरंभ करनी होगी।",
	},
	"still_missing": {
		"english": "It seems I still need a few more details for the {category} form before we can proceed. Could we go over what's missing?",
		"hindi":   "लगता है {category} फॉर्म के लिए आगे बढ़ने से पहले मुझे अभी भी कुछ और विवरण चाहिए। क्या हम जो गायब है उस पर बात कर सकते हैं?",
	},
	"trouble_processing": {
		"english": "I'm having a bit of trouble processing that. Could you please repeat or rephrase the last piece of information?",
		"hindi":   "मुझे इसे संसाधित करने में थोड़ी परेशानी हो रही है। क्या आप कृपया अंतिम जानकारी दोहरा सकते हैं या उसे दूसरे शब्दों में कह सकते हैं?",
	},
	"technical_difficulty": {
		"english": "I'm having some technical difficulties at the moment. Please try again in a short while.",
		"hindi":   "मुझे अभी कुछ तकनीकी दिक्कतें आ रही हैं। कृपया थोड़ी देर में पुनः प्रयास करें।",
	},
	"default_grievance_name": {
		"english": "grievance",
		"hindi":   "शिकायत",
	},
	"some_specific_details": {
		"english": "some specific details",
		"hindi":   "कुछ विशिष्ट विवरण",
	},
	"none_collected": {
		"english": "None explicitly confirmed yet",
		"hindi":   "अभी तक स्पष्ट रूप से कुछ भी पुष्टि नहीं की गई है",
	},
	"all_collected": {
		"english": "All seem to be mentioned or collected!",
		"hindi":   "सभी का उल्लेख या संग्रह किया गया लगता है!",
	},
}

// Text returns the localized message for a key, applying {name}
// substitutions. Lookups fall back to English; wholly unknown keys return
// a marked placeholder so missing translations are visible, not silent.
func Text(key, language string, subs map[string]string) string {
	lang := strings.ToLower(language)
	if !Supported(lang) {
		lang = DefaultLanguage
	}

	variants, ok := messages[key]
	if !ok {
		return "[[missing:" + key + "]]"
	}
	msg, ok := variants[lang]
	if !ok {
		msg, ok = variants[DefaultLanguage]
		if !ok {
			return "[[missing:" + key + "]]"
		}
	}

	for name, value := range subs {
		msg = strings.ReplaceAll(msg, "{"+name+"}", value)
	}
	return msg
}
