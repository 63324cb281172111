package service

import (
	"strings"

	"cropchain/internal/assistant/models"
)

var explanations = map[string]string{
	"batch creation":   `To create a batch: 1) Go to "Add Batch" page, 2) Fill in farmer details, crop type, quantity, and harvest date, 3) Add certifications if applicable, 4) Submit to generate a unique batch ID and QR code, 5) The batch is recorded on the blockchain for immutable tracking.`,
	"qr scanning":      "QR codes provide instant access to batch information. Consumers can scan the QR code on products to see the complete farm-to-fork journey, including farmer details, harvest date, and all supply chain updates.",
	"supply chain":     "The supply chain has 4 stages: Farmer (harvest) → Mandi (processing/wholesale) → Transport (logistics) → Retailer (final sale). Each stage update is recorded with timestamp, location, and actor details for complete traceability.",
	"blockchain":       "Blockchain ensures data immutability - once recorded, information cannot be altered. This creates trust between all parties and prevents fraud in the supply chain. Each update gets a unique hash for verification.",
	"immutable record": "An immutable record means the data cannot be changed or deleted once written to the blockchain. This ensures the integrity of crop tracking information and builds trust among farmers, retailers, and consumers.",
}

const topicMenu = "I can help explain CropChain processes. Try asking about: batch creation, QR scanning, supply chain, blockchain, or immutable records."

// Explain looks topic up case-insensitively. Unknown topics get the menu.
func Explain(topic string) models.Result {
	if text, ok := explanations[strings.ToLower(strings.TrimSpace(topic))]; ok {
		return models.Result{Success: true, Explanation: text}
	}
	return models.Result{Success: true, Explanation: topicMenu}
}
